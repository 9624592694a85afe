package domain

// InjectEdge adds a completion edge from -> to without the registration
// checks, so tests can assemble graphs AddTask would refuse.
func (g *Graph) InjectEdge(from, to TaskID) {
	f, t := g.index[from], g.index[to]
	g.nodes[f].deps = append(g.nodes[f].deps, edge{to: t, kind: CompletionDependency})
	g.nodes[f].task.Dependencies = append(g.nodes[f].task.Dependencies, Dependency{ID: to})
	g.nodes[t].dependents = append(g.nodes[t].dependents, edge{to: f, kind: CompletionDependency})
}

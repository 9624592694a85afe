package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidConfiguration is returned when a stage is constructed with malformed input.
	ErrInvalidConfiguration = zerr.New("invalid configuration")

	// ErrTaskAlreadyExists is returned when attempting to add a task whose id is already registered.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrUnknownDependency is returned when a task references an id that is not registered yet.
	ErrUnknownDependency = zerr.New("unknown dependency")

	// ErrCycleDetected is returned when a cycle is detected in the task dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTaskNotFound is returned when a requested task is not found in the graph.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrGraphSealed is returned when a task is added after execution has started.
	ErrGraphSealed = zerr.New("graph is sealed: execution already started")

	// ErrMissingWork is returned when a task has nothing to run.
	ErrMissingWork = zerr.New("task has no work")

	// ErrUpstreamFailure is attached to tasks skipped because a dependency failed.
	ErrUpstreamFailure = zerr.New("upstream dependency failed")

	// ErrExecution wraps the failure returned by a task's own work.
	ErrExecution = zerr.New("task execution failed")

	// ErrTaskPanicked is returned when a task's work panics.
	ErrTaskPanicked = zerr.New("task panicked")

	// ErrTaskCanceled is reported for tasks that were canceled before finishing.
	ErrTaskCanceled = zerr.New("task canceled")

	// ErrPipelineFailed is returned when at least one task did not succeed.
	ErrPipelineFailed = zerr.New("pipeline execution failed")

	// ErrConfigReadFailed is returned when the pipeline file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read pipeline file")

	// ErrConfigParseFailed is returned when the pipeline file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse pipeline file")

	// ErrConfigNotFound is returned when no pipeline file can be found.
	ErrConfigNotFound = zerr.New("could not find pipeline file")

	// ErrUnsupportedFormat is returned for pipeline files with an unknown extension.
	ErrUnsupportedFormat = zerr.New("unsupported pipeline file format")

	// ErrUnknownStageType is returned when a stage declares a type that has no implementation.
	ErrUnknownStageType = zerr.New("unknown stage type")

	// ErrLayerNotFound is returned when a named layer is not present in the layer store.
	ErrLayerNotFound = zerr.New("layer not found")

	// ErrLayerLoadFailed is returned when a source file cannot be loaded as a layer.
	ErrLayerLoadFailed = zerr.New("failed to load layer")

	// ErrLayerWriteFailed is returned when a layer cannot be persisted.
	ErrLayerWriteFailed = zerr.New("failed to write layer")

	// ErrInputNotFound is returned when a declared input pattern matches no file.
	ErrInputNotFound = zerr.New("input not found")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrAlgorithmFailed is returned when the processing engine reports a failure.
	ErrAlgorithmFailed = zerr.New("processing algorithm failed")

	// ErrHistoryOpenFailed is returned when the run history database cannot be opened.
	ErrHistoryOpenFailed = zerr.New("failed to open run history")

	// ErrHistoryWriteFailed is returned when a run report cannot be recorded.
	ErrHistoryWriteFailed = zerr.New("failed to record run report")

	// ErrHistoryReadFailed is returned when run history cannot be queried.
	ErrHistoryReadFailed = zerr.New("failed to read run history")
)

package ecsruntime

import "errors"

var (
	// ErrComponentAlreadyRegistered indicates an attempt to register the same component twice.
	ErrComponentAlreadyRegistered = errors.New("ecsruntime: component already registered")
	// ErrComponentNotRegistered signals lookup on an unknown component type.
	ErrComponentNotRegistered = errors.New("ecsruntime: component not registered")
	// ErrNilStorageStrategy is returned when storage registration receives a nil strategy.
	ErrNilStorageStrategy = errors.New("ecsruntime: nil storage strategy")
	// ErrNilComponentStore is returned when a strategy produces a nil store.
	ErrNilComponentStore = errors.New("ecsruntime: strategy returned nil store")
	// ErrWorkerPoolClosed indicates jobs cannot be submitted because the pool closed.
	ErrWorkerPoolClosed = errors.New("ecsruntime: worker pool closed")
	// ErrAsyncWritesNotSupported indicates an async schedule attempted to mutate components.
	ErrAsyncWritesNotSupported = errors.New("ecsruntime: async schedule cannot perform component writes")
	// ErrAsyncSystemNotAllowed indicates a system opted out of async execution.
	ErrAsyncSystemNotAllowed = errors.New("ecsruntime: system does not allow async execution")
	// ErrDuplicateWriteAccess indicates conflicting write access within a schedule.
	ErrDuplicateWriteAccess = errors.New("ecsruntime: duplicate write access to component in schedule")
	// ErrDuplicateResourceWriteAccess indicates conflicting resource write claims.
	ErrDuplicateResourceWriteAccess = errors.New("ecsruntime: duplicate write access to resource in schedule")
	// ErrAsyncResourceWritesNotSupported indicates async schedules attempted to mutate resources.
	ErrAsyncResourceWritesNotSupported = errors.New("ecsruntime: async schedule cannot perform resource writes")

	// ErrEntityInvalid is a contract violation: the handle is stale or the sentinel.
	ErrEntityInvalid = errors.New("ecsruntime: entity handle is invalid")
	// ErrResourceAlreadyPresent is returned by the strict Insert/Emplace form.
	ErrResourceAlreadyPresent = errors.New("ecsruntime: resource already present")
	// ErrResourceNotFound signals lookup of a resource type that was never inserted.
	ErrResourceNotFound = errors.New("ecsruntime: resource not found")
	// ErrComponentNotPresent is returned by the strict Remove form when the entity lacks the component.
	ErrComponentNotPresent = errors.New("ecsruntime: component not present on entity")
	// ErrAllocatorOutOfMemory signals capacity exhaustion; callers must check, never a panic.
	ErrAllocatorOutOfMemory = errors.New("ecsruntime: allocator exhausted")
	// ErrAllocatorOutOfOrder signals a stack allocator deallocation violating LIFO order.
	ErrAllocatorOutOfOrder = errors.New("ecsruntime: stack deallocation out of LIFO order")
	// ErrScheduleCycle signals a cycle among schedules' Before/After
	// constraints. Cycles among system orderings inside one schedule are
	// broken by dropping an edge and logged, not reported with this error.
	ErrScheduleCycle = errors.New("ecsruntime: cycle detected in schedule graph")
)

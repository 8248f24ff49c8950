package auth

// Action represents an operation on a resource
type Action string

const (
	ActionRead Action = "read"
)

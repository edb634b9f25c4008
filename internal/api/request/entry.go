package request

// CreateEntry is the body of POST /entries.
type CreateEntry struct {
	Author  string `json:"author" validate:"required,min=1,max=64,nocontrol"`
	Message string `json:"message" validate:"required,min=1,max=500,nocontrol"`
}

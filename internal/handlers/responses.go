package handlers

// IDResponse is the response for create operations
type IDResponse struct {
	ID string `json:"id"`
}

// SessionResponse describes the signed-in caller
type SessionResponse struct {
	UID         string `json:"uid"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
}

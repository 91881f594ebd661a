package services

// Service errors
var (
	ErrNotSignedIn        = &ServiceError{Code: "UNAUTHORIZED", Message: "sign in to submit picks"}
	ErrRoundClosed        = &ServiceError{Code: "ROUND_CLOSED", Message: "this round is not open for picks"}
	ErrIncompletePick     = &ServiceError{Code: "INCOMPLETE_PICK", Message: "pick a winner for every match in the round"}
	ErrInvalidSelection   = &ServiceError{Code: "INVALID_SELECTION", Message: "predicted winner must be one of the match's two teams"}
	ErrUnknownMatch       = &ServiceError{Code: "UNKNOWN_MATCH", Message: "selection references a match outside this round"}
	ErrInvalidScore       = &ServiceError{Code: "INVALID_SCORE", Message: "score must be a non-negative integer"}
	ErrInvalidMatchStatus = &ServiceError{Code: "INVALID_STATUS", Message: "status must be one of upcoming, live, final, completed"}
	ErrBaseURLNotSet      = &ServiceError{Code: "BASE_URL_NOT_SET", Message: "base_url not configured"}
)

// ServiceError represents a policy outcome the client can act on
type ServiceError struct {
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

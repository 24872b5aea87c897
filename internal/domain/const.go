package domain

const (
	RequesterIdCtxKey   = "crm-requesterId"
	RequesterRoleCtxKey = "crm-requesterRole"
	SessionCtxKey       = "crm-session"
)

const (
	SessionCookieName = "crm_session"
)

package adminaction

type ActionType string

const (
	ActionDeleteRequest      ActionType = "DELETE_REQUEST"
	ActionDeactivateProperty ActionType = "DEACTIVATE_PROPERTY"
	ActionRejectProperty     ActionType = "REJECT_PROPERTY"
	ActionDeleteProperty     ActionType = "DELETE_PROPERTY"
)

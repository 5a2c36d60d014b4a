package action

// Action selects the gateway operation of a write
type Action string

const (
	Insert              Action = "insert"
	UpdateOutData       Action = "updateOutData"
	UploadFile          Action = "uploadFile"
	SubmitAdvance       Action = "submitAdvance"
	UpdateAdvanceStatus Action = "updateAdvanceStatus"
	UpdateUserAccess    Action = "updateUserAccess"
)

// Idempotent reports whether replaying the action leaves the sheet as a
// single delivery would. Appends are not: a replay adds a second row.
func (a Action) Idempotent() bool {
	switch a {
	case UpdateOutData, UpdateAdvanceStatus, UpdateUserAccess:
		return true
	}
	return false
}

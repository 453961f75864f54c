package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add    func(AddArgs) (Result, error)
	Bulk   func(BulkArgs) (Result, error)
	Done   func(DoneArgs) (Result, error)
	Audit  func(AuditArgs) (Result, error)
	Rename func(RenameArgs) (Result, error)
	Focus  func(FocusArgs) (Result, error)
	View   func(ViewArgs) (Result, error)
	Reload func() (Result, error)
	Logout func() (Result, error)
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Add(*cmd.Add)
	case TypeBulk:
		if handlers.Bulk == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Bulk(*cmd.Bulk)
	case TypeDone:
		if handlers.Done == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Done(*cmd.Done)
	case TypeAudit:
		if handlers.Audit == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Audit(*cmd.Audit)
	case TypeRename:
		if handlers.Rename == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Rename(*cmd.Rename)
	case TypeFocus:
		if handlers.Focus == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Focus(*cmd.Focus)
	case TypeView:
		if handlers.View == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.View(*cmd.View)
	case TypeReload:
		if handlers.Reload == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Reload()
	case TypeLogout:
		if handlers.Logout == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Logout()
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

package facade

import (
	"context"
	"encoding/json"

	"studiocrm/internal/apperrors"
	"studiocrm/internal/metrics"
)

// Имена команд совпадают с командами оболочки.
const (
	CmdSaveBooking        = "save_booking"
	CmdUpdateStatus       = "update_status"
	CmdGetBookings        = "get_bookings"
	CmdDeleteBooking      = "delete_booking"
	CmdEditBooking        = "edit_booking"
	CmdRegisterUser       = "register_user"
	CmdLoginUser          = "login_user"
	CmdLogoutUser         = "logout_user"
	CmdGetWorkers         = "get_workers"
	CmdGetWorkerHistory   = "get_worker_history"
	CmdCheckClientHistory = "check_client_history"
	CmdGetStatistics      = "get_statistics"
	CmdMakeAdmin          = "make_admin"
	CmdExportBookings     = "export_bookings"
)

type saveBookingArgs struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Date      string `json:"date"`
	Bought    int64  `json:"bought"`
	CreatedBy *int64 `json:"created_by,omitempty"`
	Token     string `json:"token,omitempty"`
}

type updateStatusArgs struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type idArgs struct {
	ID int64 `json:"id"`
}

type editBookingArgs struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Date   string `json:"date"`
	Bought int64  `json:"bought"`
	Status string `json:"status"`
}

type registerArgs struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginArgs struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type tokenArgs struct {
	Token string `json:"token"`
}

type workerArgs struct {
	WorkerID int64 `json:"worker_id"`
}

type phoneArgs struct {
	Phone string `json:"phone"`
}

// Dispatch разбирает аргументы команды и вызывает соответствующий метод.
// Любая ошибка несет вид (kind) для оболочки; счетчики команд ведутся здесь,
// чтобы ни один вызов не прошел мимо метрик.
func (f *Facade) Dispatch(ctx context.Context, command string, args json.RawMessage) (any, error) {
	metrics.IncCommand(command)

	result, err := f.dispatch(ctx, command, args)
	if err != nil {
		kind := apperrors.KindOf(err)
		metrics.IncCommandError(command, kind.String())
		f.logger.Warn().
			Str("command", command).
			Str("kind", kind.String()).
			Err(err).
			Msg("Команда завершилась ошибкой")
		return nil, err
	}
	return result, nil
}

func (f *Facade) dispatch(ctx context.Context, command string, args json.RawMessage) (any, error) {
	switch command {
	case CmdSaveBooking:
		var a saveBookingArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, err
		}
		return f.SaveBooking(ctx, a.Name, a.Phone, a.Date, a.Bought, a.CreatedBy, a.Token)

	case CmdUpdateStatus:
		var a updateStatusArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, err
		}
		return f.UpdateStatus(ctx, a.ID, a.Status)

	case CmdGetBookings:
		return f.GetBookings(ctx)

	case CmdDeleteBooking:
		var a idArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, err
		}
		return f.DeleteBooking(ctx, a.ID)

	case CmdEditBooking:
		var a editBookingArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, err
		}
		return f.EditBooking(ctx, a.ID, a.Name, a.Phone, a.Date, a.Bought, a.Status)

	case CmdRegisterUser:
		var a registerArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, err
		}
		return f.RegisterUser(ctx, a.Name, a.Phone, a.Password)

	case CmdLoginUser:
		var a loginArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, err
		}
		return f.LoginUser(ctx, a.Phone, a.Password)

	case CmdLogoutUser:
		var a tokenArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, err
		}
		return f.LogoutUser(ctx, a.Token)

	case CmdGetWorkers:
		return f.GetWorkers(ctx)

	case CmdGetWorkerHistory:
		var a workerArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, err
		}
		return f.GetWorkerHistory(ctx, a.WorkerID)

	case CmdCheckClientHistory:
		var a phoneArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, err
		}
		return f.CheckClientHistory(ctx, a.Phone)

	case CmdGetStatistics:
		return f.GetStatistics(ctx)

	case CmdMakeAdmin:
		var a phoneArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, err
		}
		return f.MakeAdmin(ctx, a.Phone)

	case CmdExportBookings:
		return f.ExportBookings(ctx)

	default:
		return nil, apperrors.Newf(apperrors.Validation, "Неизвестная команда: %s", command)
	}
}

func unmarshalArgs(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return apperrors.New(apperrors.Validation, "Отсутствуют аргументы команды")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.Wrap(apperrors.Validation, "Некорректные аргументы команды", err)
	}
	return nil
}

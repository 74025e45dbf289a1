package repository

import (
	"cleanny-dispatch/common/contract"
	"cleanny-dispatch/common/errs"
	"cleanny-dispatch/model"
	"cleanny-dispatch/outbound/sqlgen"
	"context"
	"errors"
	"github.com/jackc/pgx/v5"
)

type StaffRepository struct {
	Querier *sqlgen.Queries
}

func NewStaffRepository(db contract.DbConn) *StaffRepository {
	return &StaffRepository{Querier: sqlgen.New(db)}
}

func (r *StaffRepository) List(ctx context.Context) ([]model.Staff, error) {
	rows, err := r.Querier.ListStaff(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "list staff")
	}

	staff := make([]model.Staff, 0, len(rows))
	for _, row := range rows {
		staff = append(staff, toStaff(row))
	}

	return staff, nil
}

func (r *StaffRepository) Get(ctx context.Context, id int64) (model.Staff, error) {
	row, err := r.Querier.GetStaff(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Staff{}, errs.Mark(err, errs.ErrStaffNotFound)
		}
		return model.Staff{}, errs.Wrap(err, "get staff")
	}

	return toStaff(row), nil
}

func (r *StaffRepository) GetByChatID(ctx context.Context, chatID int64) (model.Staff, error) {
	row, err := r.Querier.GetStaffByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Staff{}, errs.Mark(err, errs.ErrStaffNotFound)
		}
		return model.Staff{}, errs.Wrap(err, "get staff by chat id")
	}

	return toStaff(row), nil
}

func (r *StaffRepository) Create(ctx context.Context, req model.CreateStaffRequest) (model.Staff, error) {
	row, err := r.Querier.InsertStaff(ctx, sqlgen.InsertStaffParams{
		ChatID:     req.ChatID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Patronymic: req.Patronymic,
		Email:      req.Email,
		IsAdmin:    req.IsAdmin,
	})
	if err != nil {
		return model.Staff{}, errs.Wrap(err, "insert staff")
	}

	return toStaff(row), nil
}

func toStaff(row sqlgen.Staff) model.Staff {
	return model.Staff{
		ID:         row.ID,
		ChatID:     row.ChatID,
		FirstName:  row.FirstName,
		LastName:   row.LastName,
		Patronymic: row.Patronymic,
		Email:      row.Email,
		IsAdmin:    row.IsAdmin,
	}
}

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

type CustomerRepository struct {
	Querier *sqlgen.Queries
}

func NewCustomerRepository(db contract.DbConn) *CustomerRepository {
	return &CustomerRepository{Querier: sqlgen.New(db)}
}

func (r *CustomerRepository) FindByChatID(ctx context.Context, chatID int64) (model.Customer, error) {
	row, err := r.Querier.GetCustomerByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Customer{}, errs.Mark(err, errs.ErrCustomerNotFound)
		}
		return model.Customer{}, errs.Wrap(err, "get customer by chat id")
	}

	return toCustomer(row), nil
}

func (r *CustomerRepository) Get(ctx context.Context, id int64) (model.Customer, error) {
	row, err := r.Querier.GetCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Customer{}, errs.Mark(err, errs.ErrCustomerNotFound)
		}
		return model.Customer{}, errs.Wrap(err, "get customer")
	}

	return toCustomer(row), nil
}

// Save creates the profile or overwrites the one registered for the chat.
func (r *CustomerRepository) Save(ctx context.Context, c model.Customer) (model.Customer, error) {
	row, err := r.Querier.UpsertCustomer(ctx, sqlgen.UpsertCustomerParams{
		ChatID:     c.ChatID,
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Patronymic: c.Patronymic,
		Address:    c.Address,
		Phone:      c.Phone,
		Email:      c.Email,
	})
	if err != nil {
		return model.Customer{}, errs.Wrap(err, "upsert customer")
	}

	return toCustomer(row), nil
}

func toCustomer(row sqlgen.Customer) model.Customer {
	return model.Customer{
		ID:         row.ID,
		ChatID:     row.ChatID,
		FirstName:  row.FirstName,
		LastName:   row.LastName,
		Patronymic: row.Patronymic,
		Address:    row.Address,
		Phone:      row.Phone,
		Email:      row.Email,
	}
}

package proposal

import (
	"cleanny-dispatch/common/constant"
	"cleanny-dispatch/common/errs"
	"cleanny-dispatch/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"time"
)

// RedisStore keeps the live proposal of each order. GETDEL makes Take the
// single point where accept and expiry race; only one of them gets the value.
type RedisStore struct {
	Cache *redis.Client
}

func proposalKey(orderID, staffID int64) string {
	return fmt.Sprintf(constant.ProposalKey, orderID, staffID)
}

func currentKey(orderID int64) string {
	return fmt.Sprintf(constant.ProposalCurrentKey, orderID)
}

func (r RedisStore) Save(ctx context.Context, p model.Proposal, ttl time.Duration) error {
	data, err := json.Marshal(p)
	if err != nil {
		return errs.Wrap(err, "marshal proposal")
	}

	pipe := r.Cache.TxPipeline()
	pipe.Set(ctx, proposalKey(p.OrderID, p.StaffID), data, ttl)
	pipe.Set(ctx, currentKey(p.OrderID), p.StaffID, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return errs.Wrap(err, "store proposal")
	}

	return nil
}

func (r RedisStore) Take(ctx context.Context, orderID, staffID int64) (model.Proposal, bool, error) {
	data, err := r.Cache.GetDel(ctx, proposalKey(orderID, staffID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Proposal{}, false, nil
	}
	if err != nil {
		return model.Proposal{}, false, errs.Wrap(err, "take proposal")
	}

	return decode(data)
}

// Update rewrites a proposal only while it is still live, so a proposal
// already taken by an accept or expiry is never brought back.
func (r RedisStore) Update(ctx context.Context, p model.Proposal, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return false, errs.Wrap(err, "marshal proposal")
	}

	ok, err := r.Cache.SetXX(ctx, proposalKey(p.OrderID, p.StaffID), data, ttl).Result()
	if err != nil {
		return false, errs.Wrap(err, "update proposal")
	}

	return ok, nil
}

func (r RedisStore) Current(ctx context.Context, orderID int64) (model.Proposal, model.ProposalState, error) {
	staffID, err := r.Cache.Get(ctx, currentKey(orderID)).Int64()
	if errors.Is(err, redis.Nil) {
		return model.Proposal{}, model.ProposalMissing, nil
	}
	if err != nil {
		return model.Proposal{}, model.ProposalMissing, errs.Wrap(err, "read current proposal")
	}

	data, err := r.Cache.Get(ctx, proposalKey(orderID, staffID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Proposal{StaffID: staffID, OrderID: orderID}, model.ProposalInFlight, nil
	}
	if err != nil {
		return model.Proposal{}, model.ProposalMissing, errs.Wrap(err, "read proposal")
	}

	p, _, err := decode(data)
	if err != nil {
		return model.Proposal{}, model.ProposalMissing, err
	}

	return p, model.ProposalLive, nil
}

func decode(data []byte) (model.Proposal, bool, error) {
	var p model.Proposal
	if err := json.Unmarshal(data, &p); err != nil {
		return model.Proposal{}, false, errs.Wrap(err, "unmarshal proposal")
	}
	return p, true, nil
}

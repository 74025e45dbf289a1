package pricing

import (
	"cleanny-dispatch/model"
	"errors"
	"fmt"
	"github.com/shopspring/decimal"
	"sort"
)

var (
	ErrIncompleteCatalog = errors.New("catalog is missing a base or extra service")
	ErrInvalidCount      = errors.New("rooms and bathrooms must be at least 1")
	ErrUnknownAddon      = errors.New("unknown add-on service")
)

var hundred = decimal.NewFromInt(100)

// Catalog is the priced service list a quote is computed from.
type Catalog struct {
	BaseRoom      model.Service
	BaseBathroom  model.Service
	ExtraRoom     model.Service
	ExtraBathroom model.Service
	Addons        map[int64]model.Service
}

func NewCatalog(services []model.Service) (Catalog, error) {
	c := Catalog{Addons: make(map[int64]model.Service)}
	seen := make(map[model.ServiceKind]bool)

	for _, s := range services {
		switch s.Kind {
		case model.ServiceBaseRoom:
			c.BaseRoom = s
		case model.ServiceBaseBathroom:
			c.BaseBathroom = s
		case model.ServiceExtraRoom:
			c.ExtraRoom = s
		case model.ServiceExtraBathroom:
			c.ExtraBathroom = s
		case model.ServiceAddon:
			c.Addons[s.ID] = s
		default:
			continue
		}
		seen[s.Kind] = true
	}

	for _, k := range []model.ServiceKind{model.ServiceBaseRoom, model.ServiceBaseBathroom, model.ServiceExtraRoom, model.ServiceExtraBathroom} {
		if !seen[k] {
			return Catalog{}, fmt.Errorf("%w: %s", ErrIncompleteCatalog, k)
		}
	}

	return c, nil
}

// AddonIDs returns the add-on ids in ascending order.
func (c Catalog) AddonIDs() []int64 {
	ids := make([]int64, 0, len(c.Addons))
	for id := range c.Addons {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type Quote struct {
	Price    decimal.Decimal
	Duration float64
}

// Quote prices a draft: one base room and one base bathroom, every further
// room or bathroom at the extra rate, plus each add-on times its quantity.
// Duration is the same sum over lead times and is left unrounded.
func (c Catalog) Quote(rooms, bathrooms int, addons map[int64]int) (Quote, error) {
	if rooms < 1 || bathrooms < 1 {
		return Quote{}, ErrInvalidCount
	}

	q := Quote{
		Price:    c.BaseRoom.Price.Add(c.BaseBathroom.Price),
		Duration: c.BaseRoom.LeadTime + c.BaseBathroom.LeadTime,
	}

	extraRooms := decimal.NewFromInt(int64(rooms - 1))
	extraBathrooms := decimal.NewFromInt(int64(bathrooms - 1))
	q.Price = q.Price.Add(c.ExtraRoom.Price.Mul(extraRooms)).Add(c.ExtraBathroom.Price.Mul(extraBathrooms))
	q.Duration += c.ExtraRoom.LeadTime*float64(rooms-1) + c.ExtraBathroom.LeadTime*float64(bathrooms-1)

	for _, id := range sortedKeys(addons) {
		qty := addons[id]
		if qty <= 0 {
			continue
		}

		addon, ok := c.Addons[id]
		if !ok {
			return Quote{}, fmt.Errorf("%w: %d", ErrUnknownAddon, id)
		}

		q.Price = q.Price.Add(addon.Price.Mul(decimal.NewFromInt(int64(qty))))
		q.Duration += addon.LeadTime * float64(qty)
	}

	return q, nil
}

// Lines expands a draft into the order line items stored next to the order.
func (c Catalog) Lines(rooms, bathrooms int, addons map[int64]int) []model.OrderLine {
	lines := []model.OrderLine{
		{ServiceID: c.BaseRoom.ID, Quantity: 1},
		{ServiceID: c.BaseBathroom.ID, Quantity: 1},
	}
	if rooms > 1 {
		lines = append(lines, model.OrderLine{ServiceID: c.ExtraRoom.ID, Quantity: int32(rooms - 1)})
	}
	if bathrooms > 1 {
		lines = append(lines, model.OrderLine{ServiceID: c.ExtraBathroom.ID, Quantity: int32(bathrooms - 1)})
	}
	for _, id := range sortedKeys(addons) {
		if qty := addons[id]; qty > 0 {
			lines = append(lines, model.OrderLine{ServiceID: id, Quantity: int32(qty)})
		}
	}
	return lines
}

// ApplyDiscount returns price reduced by percent, rounded to kopecks.
func ApplyDiscount(price decimal.Decimal, percent int32) decimal.Decimal {
	if percent <= 0 {
		return price.Round(2)
	}
	if percent >= 100 {
		return decimal.Zero
	}

	factor := hundred.Sub(decimal.NewFromInt32(percent)).Div(hundred)
	return price.Mul(factor).Round(2)
}

// SelectDiscount picks the highest percentage among active discounts whose
// minimum frequency the customer reached. ok is false when none qualify.
func SelectDiscount(discounts []model.Discount, frequency int) (best model.Discount, ok bool) {
	for _, d := range discounts {
		if !d.Active || int(d.MinFrequency) > frequency {
			continue
		}
		if !ok || d.Percent > best.Percent {
			best = d
			ok = true
		}
	}
	return best, ok
}

func sortedKeys(m map[int64]int) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

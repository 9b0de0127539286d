package filter

import (
	"github.com/matthewbaird/rentals/internal/types"
)

// Houses searches number, name and meter number.
func Houses(query, status string) Spec[types.House] {
	return Spec[types.House]{
		Query: query,
		Fields: []func(types.House) string{
			func(h types.House) string { return h.Number },
			func(h types.House) string { return h.Name },
			func(h types.House) string { return h.KPLCMeterNumber },
		},
		Status:   status,
		StatusOf: func(h types.House) string { return string(h.Status) },
	}
}

// Tenants searches the tenant's own fields plus the number of the house they
// occupy.
func Tenants(query, status string, houses []types.House) Spec[types.Tenant] {
	byID := indexHouses(houses)
	return Spec[types.Tenant]{
		Query: query,
		Fields: []func(types.Tenant) string{
			func(t types.Tenant) string { return t.Name },
			func(t types.Tenant) string { return t.Email },
			func(t types.Tenant) string { return t.Phone },
			func(t types.Tenant) string { return byID[t.HouseID].Number },
		},
		Status:   status,
		StatusOf: func(t types.Tenant) string { return string(t.Status) },
	}
}

// Payments searches reference and description plus the paying tenant's name
// and house number.
func Payments(query, status string, tenants []types.Tenant, houses []types.House) Spec[types.Payment] {
	housesByID := indexHouses(houses)
	tenantsByID := make(map[string]types.Tenant, len(tenants))
	for _, t := range tenants {
		tenantsByID[t.ID] = t
	}
	return Spec[types.Payment]{
		Query: query,
		Fields: []func(types.Payment) string{
			func(p types.Payment) string { return p.Reference },
			func(p types.Payment) string { return p.Description },
			func(p types.Payment) string { return string(p.Type) },
			func(p types.Payment) string { return tenantsByID[p.TenantID].Name },
			func(p types.Payment) string { return housesByID[p.HouseID].Number },
		},
		Status:   status,
		StatusOf: func(p types.Payment) string { return string(p.Status) },
	}
}

func indexHouses(houses []types.House) map[string]types.House {
	m := make(map[string]types.House, len(houses))
	for _, h := range houses {
		m[h.ID] = h
	}
	return m
}

package domain

// Address is an embedded sub-record owned by a User. The collection
// invariant: while the list is non-empty, exactly one entry has
// IsDefault set. All mutations go through the functions below so the
// invariant is enforced in one place.
type Address struct {
	AddressID string `json:"id" dynamodbav:"address_id"`
	Street    string `json:"street" dynamodbav:"street"`
	City      string `json:"city" dynamodbav:"city"`
	State     string `json:"state" dynamodbav:"state"`
	ZipCode   string `json:"zip_code" dynamodbav:"zip_code"`
	Country   string `json:"country" dynamodbav:"country"`
	IsDefault bool   `json:"is_default" dynamodbav:"is_default"`
}

type AddressRequest struct {
	Street    string `json:"street" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	ZipCode   string `json:"zip_code" validate:"required"`
	Country   string `json:"country" validate:"required"`
	IsDefault bool   `json:"is_default"`
}

// ToAddress copies the request fields into an Address. The caller is
// responsible for assigning AddressID when creating a new entry.
func (r AddressRequest) ToAddress() Address {
	return Address{
		Street:    r.Street,
		City:      r.City,
		State:     r.State,
		ZipCode:   r.ZipCode,
		Country:   r.Country,
		IsDefault: r.IsDefault,
	}
}

// AddAddress appends addr to the list. The first address always becomes
// the default; an explicit default demotes the current one.
func AddAddress(list []Address, addr Address) []Address {
	if len(list) == 0 {
		addr.IsDefault = true
		return []Address{addr}
	}
	if addr.IsDefault {
		list = clearDefault(list)
	}
	return append(list, addr)
}

// UpdateAddress replaces the entry with the given ID. Promoting an entry
// to default demotes the others; demoting the only default is ignored so
// the list never ends up without one.
func UpdateAddress(list []Address, addressID string, addr Address) ([]Address, bool) {
	idx := indexOf(list, addressID)
	if idx < 0 {
		return list, false
	}
	addr.AddressID = addressID
	if addr.IsDefault {
		list = clearDefault(list)
	} else if list[idx].IsDefault {
		addr.IsDefault = true
	}
	list[idx] = addr
	return list, true
}

// RemoveAddress deletes the entry with the given ID. Deleting the default
// promotes the first remaining address.
func RemoveAddress(list []Address, addressID string) ([]Address, bool) {
	idx := indexOf(list, addressID)
	if idx < 0 {
		return list, false
	}
	wasDefault := list[idx].IsDefault
	list = append(list[:idx], list[idx+1:]...)
	if wasDefault && len(list) > 0 {
		list[0].IsDefault = true
	}
	return list, true
}

func indexOf(list []Address, addressID string) int {
	for i := range list {
		if list[i].AddressID == addressID {
			return i
		}
	}
	return -1
}

func clearDefault(list []Address) []Address {
	for i := range list {
		list[i].IsDefault = false
	}
	return list
}

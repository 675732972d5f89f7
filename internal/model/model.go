package model

// All lists every entity in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Subcategory{},
		&Product{},
		&Stock{},
		&Order{},
		&OrderDetail{},
		&OTP{},
	}
}

package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysOpr{},
	&SysOprLog{},
	// Catalog
	&Category{},
	&Product{},
	&ProductVariant{},
	&SkuSequence{},
	// Store
	&StoreStatus{},
}

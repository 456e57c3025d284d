package normalizer

// systemIDs maps vendor names to their counterparty id in the import
// system. 調整中 marks vendors still being registered there.
var systemIDs = map[string]string{
	"クリーン産業":      "599239",
	"三高産業":        "563866",
	"北恵株式会社":      "563913",
	"ナンセイ":        "563829",
	"大萬":          "564361",
	"髙菱管理":        "調整中",
	"高菱管理":        "調整中",
	"オメガジャパン":     "598454",
	"ナカザワ建販":      "566232",
	"トキワシステム":     "598417",
	"ALLAGI株式会社":  "ALLAGI01",
	"ALLAGI":      "ALLAGI01",
	"ＡＬＬＡＧＩ㈱":    "ALLAGI01",
}

// SystemID returns the counterparty id for vendor.
func SystemID(vendor string) (string, bool) {
	id, ok := systemIDs[vendor]
	return id, ok
}

// forcedCategories pins a category for vendors whose lines are all of one
// kind regardless of item text.
var forcedCategories = map[string]string{
	"クリーン産業": CategoryMaterials,
	"髙菱管理":   CategoryOther,
	"高菱管理":   CategoryOther,
}

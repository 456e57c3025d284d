package normalizer

import "strings"

// Construction categories (工事種類).
const (
	CategoryMaterials = "建材関係"
	CategoryOther     = "その他"
)

var otherKeywords = []string{
	"送料", "配送", "運賃", "値引", "割引", "手数料", "サービス",
}

var materialKeywords = []string{
	"建材", "資材", "木材", "鋼材", "断熱", "ボード", "テープ", "塗料", "塗装",
	"コンクリート", "セメント", "石膏", "サイディング", "防水", "屋根", "外壁",
	"床", "壁", "天井", "クロス", "タイル", "配管", "パイプ", "電線", "ケーブル",
	"金物", "ビス", "ネジ", "接着剤", "シール", "コーキング", "シート", "ダンパー",
	"工事", "材料", "部材", "廃棄物", "収集運搬", "処理費", "アスベスト", "石綿",
}

// Category classifies an item. forced wins when set; otherwise the
// non-construction keywords are checked before the materials keywords and
// anything unmatched is その他.
func Category(item, forced string) string {
	if forced != "" {
		return forced
	}
	lower := strings.ToLower(item)
	for _, kw := range otherKeywords {
		if strings.Contains(lower, kw) {
			return CategoryOther
		}
	}
	for _, kw := range materialKeywords {
		if strings.Contains(lower, kw) {
			return CategoryMaterials
		}
	}
	return CategoryOther
}

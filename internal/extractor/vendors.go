package extractor

// Vendors with a procedural extractor.
const (
	VendorCleanIndustry = "クリーン産業"
	VendorSanko         = "三高産業"
	VendorHokukei       = "北恵株式会社"
	VendorNansei        = "ナンセイ"
	VendorTaiman        = "大萬"
	VendorTakabishi     = "髙菱管理"
	VendorTakabishiAlt  = "高菱管理"
	VendorOmega         = "オメガジャパン"
	VendorNakazawa      = "ナカザワ建販"
	VendorTokiwa        = "トキワシステム"
)

// DefaultSite is used when an invoice names no site.
const DefaultSite = "ALLAGI株式会社"

// Package content holds the static reference tables shown by CyberGuard.
package content

import "strings"

// Card is one entry of a reference table. Icon and Color are presentation
// hints passed through to clients untouched.
type Card struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

type Section string

const (
	SectionHome    Section = "HOME"
	SectionTypes   Section = "TYPES"
	SectionFuture  Section = "FUTURE"
	SectionMonitor Section = "MONITOR"
	SectionChat    Section = "CHAT"
)

type NavItem struct {
	Section Section `json:"section"`
	Label   string  `json:"label"`
}

// Sections is the navigation order.
var Sections = []NavItem{
	{SectionHome, "OVERVIEW"},
	{SectionTypes, "ATTACKS"},
	{SectionFuture, "2025 THREATS"},
	{SectionMonitor, "MONITOR"},
	{SectionChat, "AI ADVISOR"},
}

const HeroText = "การโจมตีทางไซเบอร์ (Cyber Attack) คือความพยายามของบุคคลหรือกลุ่มผู้ไม่หวังดีในการเจาะระบบคอมพิวเตอร์ เครือข่าย หรืออุปกรณ์ดิจิทัลโดยไม่ได้รับอนุญาต เพื่อขโมยข้อมูล, ทำลายระบบ, ขัดขวางการทำงาน, หรือแสวงหาผลประโยชน์ทางการเงิน"

var goals = []Card{
	{
		Title:       "การขโมยข้อมูล",
		Description: "มุ่งเป้าที่ข้อมูลส่วนตัว (PII), ข้อมูลทางการเงิน, และทรัพย์สินทางปัญญา",
		Icon:        "database",
		Color:       "text-blue-400",
	},
	{
		Title:       "ทำลายหรือขัดขวาง",
		Description: "ทำให้ระบบหยุดทำงาน หรือไม่สามารถใช้งานได้ (เช่น DDoS)",
		Icon:        "server-crash",
		Color:       "text-red-400",
	},
	{
		Title:       "การเรียกร้องค่าไถ่",
		Description: "เข้ารหัสไฟล์สำคัญและเรียกเงินเพื่อแลกกับกุญแจถอดรหัส (Ransomware)",
		Icon:        "dollar-sign",
		Color:       "text-green-400",
	},
	{
		Title:       "เข้าถึงโดยไม่ได้รับอนุญาต",
		Description: "แทรกซึมเข้าสู่เครือข่ายเพื่อควบคุมระบบ หรือเปลี่ยนแปลงข้อมูลภายใน",
		Icon:        "lock",
		Color:       "text-orange-400",
	},
}

var attackTypes = []Card{
	{
		Title:       "ฟิชชิ่ง (Phishing)",
		Description: "หลอกลวงให้เหยื่อเปิดเผยข้อมูลส่วนตัวผ่านอีเมลหรือข้อความปลอมที่ดูน่าเชื่อถือ",
		Icon:        "mail",
		Color:       "text-yellow-400",
	},
	{
		Title:       "มัลแวร์ (Malware)",
		Description: "ซอฟต์แวร์อันตราย เช่น ไวรัส, โทรจัน, สปายแวร์ ที่ถูกสร้างขึ้นเพื่อสร้างความเสียหาย",
		Icon:        "bug",
		Color:       "text-red-500",
	},
	{
		Title:       "แรนซัมแวร์ (Ransomware)",
		Description: "การโจมตีที่ทำการเข้ารหัสไฟล์ของผู้ใช้และเรียกค่าไถ่ในการถอดรหัสคืน",
		Icon:        "file-warning",
		Color:       "text-rose-500",
	},
	{
		Title:       "DDoS",
		Description: "Distributed Denial of Service: ทำให้ระบบล่มโดยการท่วมท้นด้วยปริมาณการเข้าชมจำนวนมหาศาล",
		Icon:        "shield-alert",
		Color:       "text-purple-500",
	},
	{
		Title:       "Man-in-the-Middle (MitM)",
		Description: "การดักฟังหรือแอบแก้ไขข้อมูลระหว่างการสื่อสารของสองฝ่าย",
		Icon:        "radio-receiver",
		Color:       "text-blue-500",
	},
	{
		Title:       "SQL Injection",
		Description: "โจมตีฐานข้อมูลโดยการแทรกคำสั่ง SQL ที่เป็นอันตรายผ่านช่องกรอกข้อมูล",
		Icon:        "code",
		Color:       "text-cyan-500",
	},
	{
		Title:       "Zero-day Exploits",
		Description: "ใช้ประโยชน์จากช่องโหว่ใหม่ที่ผู้ผลิตยังไม่รู้และยังไม่มีแพทช์ป้องกัน",
		Icon:        "alert-triangle",
		Color:       "text-amber-500",
	},
}

var futureThreats = []Card{
	{
		Title:       "AI & Deepfake",
		Description: "การโจมตีมีความซับซ้อนมากขึ้น โดยใช้ AI สร้างภาพหรือเสียงปลอมเพื่อหลอกลวง (Deepfake)",
		Icon:        "cpu",
		Color:       "text-pink-500",
	},
	{
		Title:       "Fileless Malware",
		Description: "เทคนิคการโจมตีแบบไร้ไฟล์ที่ทำงานในหน่วยความจำ ทำให้โปรแกรมแอนตี้ไวรัสทั่วไปตรวจจับยาก",
		Icon:        "ghost",
		Color:       "text-gray-400",
	},
}

// Goals, AttackTypes and FutureThreats return copies of the tables.
func Goals() []Card         { return clone(goals) }
func AttackTypes() []Card   { return clone(attackTypes) }
func FutureThreats() []Card { return clone(futureThreats) }

func clone(cards []Card) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}

// Filter keeps the cards whose title or description contains query,
// ignoring case. A blank query keeps everything.
func Filter(cards []Card, query string) []Card {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return clone(cards)
	}
	out := make([]Card, 0, len(cards))
	for _, c := range cards {
		if strings.Contains(strings.ToLower(c.Title), q) ||
			strings.Contains(strings.ToLower(c.Description), q) {
			out = append(out, c)
		}
	}
	return out
}

type Results struct {
	Query         string `json:"query"`
	AttackTypes   []Card `json:"attack_types"`
	FutureThreats []Card `json:"future_threats"`
}

// Search filters both searchable catalogs.
func Search(query string) Results {
	return Results{
		Query:         query,
		AttackTypes:   Filter(attackTypes, query),
		FutureThreats: Filter(futureThreats, query),
	}
}

// Catalog is the full reference set served to clients.
type Catalog struct {
	Hero          string    `json:"hero"`
	Sections      []NavItem `json:"sections"`
	Goals         []Card    `json:"goals"`
	AttackTypes   []Card    `json:"attack_types"`
	FutureThreats []Card    `json:"future_threats"`
}

func All() Catalog {
	return Catalog{
		Hero:          HeroText,
		Sections:      append([]NavItem(nil), Sections...),
		Goals:         Goals(),
		AttackTypes:   AttackTypes(),
		FutureThreats: FutureThreats(),
	}
}

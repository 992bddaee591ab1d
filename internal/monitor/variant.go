package monitor

import (
	"fmt"
	"strings"
	"time"
)

// AlertLogSize is the number of alerts kept, newest first.
const AlertLogSize = 5

// Variant describes one flavour of the simulated monitor: its starting
// counters, its perturbation bounds and its alert catalog.
type Variant struct {
	Name string

	Interval time.Duration

	InitialBlocked int
	InitialFiles   int
	InitialThreats int
	InitialAlerts  int // number of catalog entries shown at start

	ThreatCap int

	BlockedStep int // blocked += [0, BlockedStep)
	FilesStep   int // files += [0, FilesStep); zero disables the counter

	ThreatAdjustProbability float64
	AlertProbability        float64

	Alerts []string
}

var networkAlerts = []string{
	"ตรวจพบการสแกนพอร์ตจาก IP ไม่ทราบฝ่าย (Port Scan Detected)",
	"บล็อกการเชื่อมต่อ Phishing Domain: secure-bank-login-update.com",
	"แจ้งเตือน: มัลแวร์เรียกค่าไถ่สายพันธุ์ใหม่ระบาดในภูมิภาคเอเชีย",
	"ตรวจพบความพยายาม Login ผิดพลาดเกินกำหนด (Brute Force Attempt)",
	"อัปเดตฐานข้อมูลไวรัส: เพิ่ม Signature ใหม่ 1,024 รายการ",
	"แจ้งเตือน: อีเมลปลอมแปลง (Spoofing) อ้างเป็นหน่วยงานรัฐ",
	"ตรวจพบ Traffic ผิดปกติในเครือข่ายย่อย (DDoS Signature)",
}

var ransomwareAlerts = []string{
	"ตรวจพบการเปลี่ยนนามสกุลไฟล์จำนวนมาก (Mass File Rename)",
	"บล็อกโปรเซสที่พยายามลบ Shadow Copy (vssadmin delete shadows)",
	"แจ้งเตือน: พบไฟล์ข้อความเรียกค่าไถ่ README_DECRYPT.txt",
	"ตรวจพบการเข้ารหัสไฟล์ผิดปกติในโฟลเดอร์ที่แชร์ (Shared Drive)",
	"กักกันไฟล์แนบอีเมลที่มีมาโครอันตราย (Malicious Macro)",
	"ตรวจพบการเชื่อมต่อไปยังเซิร์ฟเวอร์ C2 ที่รู้จัก",
	"สำรองข้อมูลอัตโนมัติสำเร็จ: ไฟล์สำคัญได้รับการป้องกัน",
}

// VariantNetwork mirrors the live threat monitor page.
var VariantNetwork = Variant{
	Name:                    "network",
	Interval:                3 * time.Second,
	InitialBlocked:          14582,
	InitialThreats:          3,
	InitialAlerts:           3,
	ThreatCap:               10,
	BlockedStep:             5,
	ThreatAdjustProbability: 0.3,
	AlertProbability:        0.4,
	Alerts:                  networkAlerts,
}

// VariantRansomware watches file activity and caps active threats lower.
var VariantRansomware = Variant{
	Name:                    "ransomware",
	Interval:                2500 * time.Millisecond,
	InitialBlocked:          2847,
	InitialFiles:            58231,
	InitialThreats:          1,
	InitialAlerts:           3,
	ThreatCap:               5,
	BlockedStep:             3,
	FilesStep:               50,
	ThreatAdjustProbability: 0.2,
	AlertProbability:        0.4,
	Alerts:                  ransomwareAlerts,
}

// LookupVariant resolves a variant by name, case-insensitively.
func LookupVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", VariantNetwork.Name:
		return VariantNetwork, nil
	case VariantRansomware.Name:
		return VariantRansomware, nil
	default:
		return Variant{}, fmt.Errorf("unknown monitor variant %q", name)
	}
}

func (v Variant) validate() error {
	switch {
	case v.ThreatCap < 0:
		return fmt.Errorf("variant %s: negative threat cap", v.Name)
	case v.InitialThreats < 0 || v.InitialThreats > v.ThreatCap:
		return fmt.Errorf("variant %s: initial threats outside [0, %d]", v.Name, v.ThreatCap)
	case len(v.Alerts) == 0:
		return fmt.Errorf("variant %s: empty alert catalog", v.Name)
	case v.Interval <= 0:
		return fmt.Errorf("variant %s: interval must be positive", v.Name)
	}
	return nil
}

// initialState builds the state a freshly started monitor shows.
func (v Variant) initialState() State {
	n := v.InitialAlerts
	if n > len(v.Alerts) {
		n = len(v.Alerts)
	}
	if n > AlertLogSize {
		n = AlertLogSize
	}
	alerts := make([]string, n)
	copy(alerts, v.Alerts[:n])
	return State{
		Variant:        v.Name,
		BlockedCount:   v.InitialBlocked,
		FilesMonitored: v.InitialFiles,
		ActiveThreats:  v.InitialThreats,
		ThreatCap:      v.ThreatCap,
		Alerts:         alerts,
	}
}

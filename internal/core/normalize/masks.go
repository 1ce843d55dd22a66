package normalize

// =============================================================================
// CPF
// =============================================================================

const (
	cpfLength      = 11
	phoneMaxLength = 11
)

// NormalizeCPF keeps the digits of a CPF, truncated to 11.
func NormalizeCPF(raw string) string {
	return truncate(digitsOnly(raw), cpfLength)
}

// MaskCPF renders a CPF as ###.###.###-##. Partial input gets a partial
// mask ("1234" -> "123.4"), so it can be applied on every keystroke.
// MaskCPF is idempotent.
func MaskCPF(raw string) string {
	d := NormalizeCPF(raw)
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 6:
		return d[:3] + "." + d[3:]
	case len(d) <= 9:
		return d[:3] + "." + d[3:6] + "." + d[6:]
	default:
		return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
	}
}

// =============================================================================
// Phone
// =============================================================================

// NormalizePhone keeps the digits of a phone number (area code included),
// truncated to 11.
func NormalizePhone(raw string) string {
	return truncate(digitsOnly(raw), phoneMaxLength)
}

// MaskPhone renders a Brazilian phone number: (##) ####-#### for landlines
// and (##) #####-#### for 11-digit mobiles. Partial input gets a partial mask.
func MaskPhone(raw string) string {
	d := NormalizePhone(raw)
	switch {
	case len(d) == 0:
		return ""
	case len(d) <= 2:
		return "(" + d
	case len(d) <= 6:
		return "(" + d[:2] + ") " + d[2:]
	case len(d) <= 10:
		return "(" + d[:2] + ") " + d[2:6] + "-" + d[6:]
	default:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	}
}

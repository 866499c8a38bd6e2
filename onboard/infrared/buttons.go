package infrared

// Command codes sent by the stock 21 key NEC remote.
const (
	BUTTON_UP       = 70
	BUTTON_DOWN     = 21
	BUTTON_LEFT     = 68
	BUTTON_RIGHT    = 67
	BUTTON_OK       = 64
	BUTTON_0        = 82
	BUTTON_1        = 22
	BUTTON_2        = 25
	BUTTON_3        = 13
	BUTTON_4        = 12
	BUTTON_5        = 24
	BUTTON_6        = 94
	BUTTON_7        = 8
	BUTTON_8        = 28
	BUTTON_9        = 90
	BUTTON_ASTERISK = 66
	BUTTON_HASHTAG  = 74
)

var buttonNames = map[uint8]string{
	BUTTON_UP:       "up",
	BUTTON_DOWN:     "down",
	BUTTON_LEFT:     "left",
	BUTTON_RIGHT:    "right",
	BUTTON_OK:       "ok",
	BUTTON_0:        "0",
	BUTTON_1:        "1",
	BUTTON_2:        "2",
	BUTTON_3:        "3",
	BUTTON_4:        "4",
	BUTTON_5:        "5",
	BUTTON_6:        "6",
	BUTTON_7:        "7",
	BUTTON_8:        "8",
	BUTTON_9:        "9",
	BUTTON_ASTERISK: "*",
	BUTTON_HASHTAG:  "#",
}

func ButtonName(code uint8) string {
	if name, ok := buttonNames[code]; ok {
		return name
	}
	return "?"
}

// ButtonCode is the reverse of ButtonName.
func ButtonCode(name string) (code uint8, ok bool) {
	for c, n := range buttonNames {
		if n == name {
			return c, true
		}
	}
	return 0, false
}

// ButtonNames lists every known button name.
func ButtonNames() (names []string) {
	for _, n := range buttonNames {
		names = append(names, n)
	}
	return
}

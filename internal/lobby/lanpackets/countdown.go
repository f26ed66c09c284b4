package lanpackets

// CountDownStart and CountDownEnd carry no payload; both ends only care
// about the type id and its timing (spec.md §4.E, §5).
var (
	CountDownStart = []byte{}
	CountDownEnd   = []byte{}
)

package canon

const (
	regionFree    = "free"
	regionUnknown = "unknown"
)

// regionsV1 is the region synonym table frozen with hash versions 1 to 3.
// Keys are textutil.Token forms.
var regionsV1 = map[string]string{
	"a": "a", "region_a": "a",
	"b": "b", "region_b": "b",
	"c": "c", "region_c": "c",
	"1": "1", "region_1": "1",
	"2": "2", "region_2": "2",
	"3": "3", "region_3": "3",
	"4": "4", "region_4": "4",
	"5": "5", "region_5": "5",
	"6": "6", "region_6": "6",
	"7": "7", "region_7": "7",
	"8": "8", "region_8": "8",
	"free":        regionFree,
	"region_free": regionFree,
	"all":         regionFree,
	"0":           regionFree,
	"abc":         regionFree,
	"worldwide":   regionFree,
	"unknown":     regionUnknown,
}

// regionsV4 is the region synonym table frozen with hash version 4.
var regionsV4 = extendRegions(regionsV1, map[string]string{
	"rf":                 regionFree,
	"region_0":           regionFree,
	"region_abc":         regionFree,
	"a/b/c":              regionFree,
	"1_8":                regionFree,
	"researched_unknown": regionUnknown,
	"unverified":         regionUnknown,
})

func extendRegions(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

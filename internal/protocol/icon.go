package protocol

import "strings"

// IconColor is the status ball shown by the CI engine for a job. The _anime
// variants are drawn with a busy animation over the underlying color.
type IconColor string

const (
	IconRed           IconColor = "red"
	IconRedAnime      IconColor = "red_anime"
	IconYellow        IconColor = "yellow"
	IconYellowAnime   IconColor = "yellow_anime"
	IconBlue          IconColor = "blue"
	IconBlueAnime     IconColor = "blue_anime"
	IconGrey          IconColor = "grey"
	IconGreyAnime     IconColor = "grey_anime"
	IconDisabled      IconColor = "disabled"
	IconDisabledAnime IconColor = "disabled_anime"
	IconAborted       IconColor = "aborted"
	IconAbortedAnime  IconColor = "aborted_anime"
	IconNotBuilt      IconColor = "notbuilt"
	IconNotBuiltAnime IconColor = "notbuilt_anime"
)

func NormalizeIconColor(c string) IconColor {
	return IconColor(strings.ToLower(strings.TrimSpace(c)))
}

// IsBuildingIcon reports whether the icon shows a build in progress. Only the
// blue, yellow, red, grey and disabled animations count, matching what the
// radiator has always treated as busy.
func IsBuildingIcon(c IconColor) bool {
	switch NormalizeIconColor(string(c)) {
	case IconBlueAnime, IconYellowAnime, IconRedAnime, IconGreyAnime, IconDisabledAnime:
		return true
	default:
		return false
	}
}

package model

// KindInfo contains remediation metadata about an issue kind.
type KindInfo struct {
	Impact         string
	Recommendation string
}

// kindInfoMapping maps issue kinds to their metadata.
// Reports read from here so every output format explains a kind the same way.
var kindInfoMapping = map[IssueKind]KindInfo{
	KindBrokenLink: {
		Impact:         "Visitors following this link reach an error page or nothing at all.",
		Recommendation: "Update the link target, add a redirect, or remove the link.",
	},
	KindBrokenImage: {
		Impact:         "The image renders as an empty box or broken icon.",
		Recommendation: "Restore the image at its original location or fix the src attribute.",
	},
	KindMissingAsset: {
		Impact:         "A script or stylesheet failed to load, which can break layout or behavior.",
		Recommendation: "Check the asset path and the deployment that should publish it.",
	},
}

// GetKindInfo returns the metadata for an issue kind.
// Unknown kinds return an empty KindInfo.
func GetKindInfo(kind IssueKind) KindInfo {
	return kindInfoMapping[kind]
}

// AllKinds returns the issue kinds in report order.
func AllKinds() []IssueKind {
	return []IssueKind{KindBrokenLink, KindBrokenImage, KindMissingAsset}
}

// CountByKind tallies issues per kind.
func CountByKind(issues []Issue) map[IssueKind]int {
	counts := make(map[IssueKind]int, len(kindInfoMapping))
	for _, issue := range issues {
		counts[issue.Kind]++
	}
	return counts
}

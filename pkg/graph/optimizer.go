package graph

// optimize rewrites the leading V().hasLabel(l) into a label scan and
// V().hasLabel(l).has(k, v) into a property lookup, which the store answers from
// its property index when one exists on (l, k).
func optimize(steps []Step) []Step {
	if len(steps) < 2 {
		return steps
	}

	start, ok := steps[0].(*vertexStartStep)
	if !ok || len(start.ids) > 0 {
		return steps
	}

	hl, ok := steps[1].(*hasLabelStep)
	if !ok || len(hl.labels) != 1 {
		return steps
	}
	label := hl.labels[0]

	if len(steps) > 2 {
		if h, ok := steps[2].(*hasStep); ok && h.eq != nil {
			return append([]Step{&propertyLookupStep{label: label, key: h.key, value: *h.eq}}, steps[3:]...)
		}
	}

	return append([]Step{&labelScanStep{label: label}}, steps[2:]...)
}

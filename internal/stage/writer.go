package stage

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Write serializes the stage as usda text. Output is deterministic: stage
// metadata and prim properties are emitted in sorted order, prims in
// definition order, and time samples in ascending time order, so the same
// document always serializes to identical bytes.
func (s *Stage) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("#usda 1.0\n")

	meta := s.metadataLines()
	if len(meta) > 0 {
		bw.WriteString("(\n")
		for _, line := range meta {
			bw.WriteString("    " + line + "\n")
		}
		bw.WriteString(")\n")
	}

	for _, p := range s.root {
		bw.WriteString("\n")
		if err := writePrim(bw, p, 0); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ExportToString serializes the stage and returns the usda text.
func (s *Stage) ExportToString() (string, error) {
	var b strings.Builder
	if err := s.Write(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Stage) metadataLines() []string {
	var lines []string
	if s.defaultPrim != nil {
		lines = append(lines, fmt.Sprintf("defaultPrim = %q", s.defaultPrim.name))
	}
	if s.hasEndTime {
		lines = append(lines, "endTimeCode = "+formatFloat(s.endTime))
	}
	if s.hasStartTime {
		lines = append(lines, "startTimeCode = "+formatFloat(s.startTime))
	}
	if s.hasTimeCodes {
		lines = append(lines, "timeCodesPerSecond = "+formatFloat(s.timeCodesPerSecond))
	}
	if s.upAxis != "" {
		lines = append(lines, fmt.Sprintf("upAxis = %q", s.upAxis))
	}
	return lines
}

func writePrim(bw *bufio.Writer, p *Prim, depth int) error {
	ind := strings.Repeat("    ", depth)

	fmt.Fprintf(bw, "%sdef %s \"%s\"", ind, p.typeName, p.name)
	if len(p.apiSchemas) > 0 {
		quoted := make([]string, len(p.apiSchemas))
		for i, s := range p.apiSchemas {
			quoted[i] = fmt.Sprintf("%q", s)
		}
		fmt.Fprintf(bw, " (\n%s    prepend apiSchemas = [%s]\n%s)", ind, strings.Join(quoted, ", "), ind)
	}
	fmt.Fprintf(bw, "\n%s{\n", ind)

	props := make([]*property, len(p.props))
	copy(props, p.props)
	sort.Slice(props, func(i, j int) bool { return props[i].name < props[j].name })
	for _, pr := range props {
		if err := writeProperty(bw, pr, p, depth+1); err != nil {
			return err
		}
	}

	for _, child := range p.children {
		bw.WriteString("\n")
		if err := writePrim(bw, child, depth+1); err != nil {
			return err
		}
	}

	fmt.Fprintf(bw, "%s}\n", ind)
	return nil
}

func writeProperty(bw *bufio.Writer, pr *property, owner *Prim, depth int) error {
	ind := strings.Repeat("    ", depth)

	if pr.isRel {
		fmt.Fprintf(bw, "%srel %s = <%s>\n", ind, pr.name, pr.relTo)
		return nil
	}
	if pr.conn == "" && !pr.hasDef && len(pr.samples) == 0 {
		fmt.Fprintf(bw, "%s%s %s\n", ind, pr.typeName, pr.name)
		return nil
	}
	if pr.conn != "" {
		fmt.Fprintf(bw, "%s%s %s.connect = <%s>\n", ind, pr.typeName, pr.name, pr.conn)
	}
	if pr.hasDef {
		lit, err := formatValue(pr.def)
		if err != nil {
			return fmt.Errorf("prim %s attribute %s: %w", owner.path, pr.name, err)
		}
		if pr.interp != "" {
			fmt.Fprintf(bw, "%s%s %s = %s (\n%s    interpolation = %q\n%s)\n",
				ind, pr.typeName, pr.name, lit, ind, pr.interp, ind)
		} else {
			fmt.Fprintf(bw, "%s%s %s = %s\n", ind, pr.typeName, pr.name, lit)
		}
	}
	if len(pr.samples) > 0 {
		times := make([]float64, 0, len(pr.samples))
		for t := range pr.samples {
			times = append(times, t)
		}
		sort.Float64s(times)

		fmt.Fprintf(bw, "%s%s %s.timeSamples = {\n", ind, pr.typeName, pr.name)
		for _, t := range times {
			lit, err := formatValue(pr.samples[t])
			if err != nil {
				return fmt.Errorf("prim %s attribute %s at time %s: %w", owner.path, pr.name, formatFloat(t), err)
			}
			fmt.Fprintf(bw, "%s    %s: %s,\n", ind, formatFloat(t), lit)
		}
		fmt.Fprintf(bw, "%s}\n", ind)
	}
	return nil
}

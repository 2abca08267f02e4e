package analyses

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const reportWidth = 70

// PrintReport renders a human-readable summary of result. Empty sections are omitted.
func PrintReport(w io.Writer, result AnalysisResult) error {
	bw := bufio.NewWriter(w)
	rule := strings.Repeat("=", reportWidth)

	fmt.Fprintf(bw, "\n%s\nRESUME ANALYSIS RESULTS\n%s\n", rule, rule)
	fmt.Fprintf(bw, "\nSIMILARITY SCORE: %d/100\n", result.SimilarityScore)
	fmt.Fprintf(bw, "   Overall Match: %s\n", result.OverallMatch)

	if result.AnalysisSummary != "" {
		fmt.Fprintf(bw, "\nSUMMARY:\n   %s\n", result.AnalysisSummary)
	}
	writeNumbered(bw, "KEY STRENGTHS:", result.KeyStrengths)
	writeBullets(bw, "MATCHING SKILLS", result.MatchingSkills)
	writeBullets(bw, "PARTIAL MATCHES", result.PartialMatches)
	writeBullets(bw, "MISSING SKILLS", result.MissingSkills)
	writeNumbered(bw, fmt.Sprintf("RECOMMENDATIONS (%d):", len(result.Recommendations)), result.Recommendations)

	fmt.Fprintf(bw, "\n%s\n", rule)
	return bw.Flush()
}

func writeNumbered(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", title)
	for i, item := range items {
		fmt.Fprintf(w, "   %d. %s\n", i+1, item)
	}
}

func writeBullets(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s (%d):\n", title, len(items))
	for _, item := range items {
		fmt.Fprintf(w, "   • %s\n", item)
	}
}

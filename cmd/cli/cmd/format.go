package cmd

import (
	"fmt"
	"strings"
	"time"

	"flightwx/pkg/api"

	"github.com/spf13/cobra"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func statusIcon(status string) string {
	switch status {
	case "SAFE", "SCHEDULED", "ACCEPTED", "COMPLETED":
		return colorGreen + "✓" + colorReset
	case "UNSAFE", "WEATHER_CANCELLED", "REJECTED":
		return colorRed + "✗" + colorReset
	case "PENDING_STUDENT", "PENDING_INSTRUCTOR":
		return colorYellow + "⏳" + colorReset
	case "EXPIRED", "RESCHEDULED":
		return colorCyan + "◯" + colorReset
	default:
		return "•"
	}
}

func colorizeStatus(status string) string {
	icon := statusIcon(status)
	switch status {
	case "SAFE", "SCHEDULED", "ACCEPTED", "COMPLETED":
		return icon + " " + colorGreen + status + colorReset
	case "UNSAFE", "WEATHER_CANCELLED", "REJECTED":
		return icon + " " + colorRed + status + colorReset
	case "PENDING_STUDENT", "PENDING_INSTRUCTOR":
		return icon + " " + colorYellow + status + colorReset
	case "EXPIRED", "RESCHEDULED":
		return icon + " " + colorCyan + status + colorReset
	default:
		return status
	}
}

func formatCeiling(c *int) string {
	if c == nil {
		return "unlimited"
	}
	return fmt.Sprintf("%d ft", *c)
}

func formatTime(t time.Time) string {
	return t.Format("Mon, 02 Jan 2006 15:04 MST")
}

func relativeUntil(t time.Time) string {
	d := time.Until(t)
	if d < 0 {
		return "passed"
	}
	if d < time.Hour {
		return fmt.Sprintf("in %dm", int(d.Minutes()))
	}
	if d < 48*time.Hour {
		return fmt.Sprintf("in %dh", int(d.Hours()))
	}
	return fmt.Sprintf("in %d days", int(d.Hours()/24))
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

func printReasons(cmd *cobra.Command, reasons []string) {
	if len(reasons) == 0 {
		return
	}
	cmd.Printf("%sReasons:%s\n", colorDim, colorReset)
	for _, r := range reasons {
		cmd.Printf("  - %s\n", r)
	}
}

func printCheck(cmd *cobra.Command, res *api.WeatherCheckResponse) {
	cmd.Printf("%s %sWeather Check%s\n", statusIcon(res.Verdict.Result), colorBold, colorReset)
	cmd.Println("──────────────────────────────")
	cmd.Printf("%sFlight:%s      %s\n", colorDim, colorReset, res.FlightID)
	cmd.Printf("%sStatus:%s      %s\n", colorDim, colorReset, colorizeStatus(res.FlightStatus))
	cmd.Printf("%sAirport:%s     %s (%s)\n", colorDim, colorReset, res.Reading.Airport, res.Reading.Provider)
	cmd.Printf("%sVisibility:%s  %.2f SM (min %.1f)\n", colorDim, colorReset, res.Reading.Visibility, res.Verdict.Minimums.Visibility)
	cmd.Printf("%sCeiling:%s     %s (min %d ft)\n", colorDim, colorReset, formatCeiling(res.Reading.Ceiling), res.Verdict.Minimums.Ceiling)
	cmd.Printf("%sWind:%s        %d kt (max %d kt)\n", colorDim, colorReset, res.Reading.WindSpeed, res.Verdict.Minimums.MaxWind)
	if res.Reading.Conditions != "" {
		cmd.Printf("%sConditions:%s  %s\n", colorDim, colorReset, res.Reading.Conditions)
	}
	cmd.Printf("%sResult:%s      %s\n", colorDim, colorReset, colorizeStatus(res.Verdict.Result))
	printReasons(cmd, res.Verdict.Reasons)
	if res.Cancelled {
		cmd.Printf("%sFlight cancelled for weather.%s\n", colorRed, colorReset)
	}
}

func printStoredCheck(cmd *cobra.Command, c *api.WeatherCheck) {
	cmd.Printf("%s %sLatest Weather Check%s\n", statusIcon(c.Result), colorBold, colorReset)
	cmd.Println("──────────────────────────────")
	cmd.Printf("%sID:%s          %s\n", colorDim, colorReset, c.ID)
	cmd.Printf("%sChecked:%s     %s\n", colorDim, colorReset, formatTime(c.CheckTime))
	cmd.Printf("%sAirport:%s     %s (%s)\n", colorDim, colorReset, c.Location, c.Provider)
	cmd.Printf("%sLevel:%s       %s\n", colorDim, colorReset, c.TrainingLevel)
	cmd.Printf("%sVisibility:%s  %.2f SM (min %.1f)\n", colorDim, colorReset, c.Visibility, c.Minimums.Visibility)
	cmd.Printf("%sCeiling:%s     %s (min %d ft)\n", colorDim, colorReset, formatCeiling(c.Ceiling), c.Minimums.Ceiling)
	cmd.Printf("%sWind:%s        %d kt (max %d kt)\n", colorDim, colorReset, c.WindSpeed, c.Minimums.MaxWind)
	cmd.Printf("%sResult:%s      %s\n", colorDim, colorReset, colorizeStatus(c.Result))
	printReasons(cmd, c.Reasons)
}

func printBriefing(cmd *cobra.Command, b *api.WeatherBriefingResponse) {
	cmd.Printf("%s %sWeather Briefing%s\n", statusIcon(b.Verdict.Result), colorBold, colorReset)
	cmd.Println("──────────────────────────────")
	cmd.Printf("%sFlight:%s      %s\n", colorDim, colorReset, b.Flight.ID)
	cmd.Printf("%sDeparts:%s     %s (%s)\n", colorDim, colorReset, formatTime(b.Flight.ScheduledStart), relativeUntil(b.Flight.ScheduledStart))
	cmd.Printf("%sStudent:%s     %s (%s)\n", colorDim, colorReset, b.StudentName, b.TrainingLevel)
	cmd.Printf("%sAirport:%s     %s (%s)\n", colorDim, colorReset, b.Reading.Airport, b.Reading.Provider)
	cmd.Printf("%sVisibility:%s  %.2f SM (min %.1f)\n", colorDim, colorReset, b.Reading.Visibility, b.Verdict.Minimums.Visibility)
	cmd.Printf("%sCeiling:%s     %s (min %d ft)\n", colorDim, colorReset, formatCeiling(b.Reading.Ceiling), b.Verdict.Minimums.Ceiling)
	cmd.Printf("%sWind:%s        %d kt (max %d kt)\n", colorDim, colorReset, b.Reading.WindSpeed, b.Verdict.Minimums.MaxWind)
	if b.Reading.Conditions != "" {
		cmd.Printf("%sConditions:%s  %s\n", colorDim, colorReset, b.Reading.Conditions)
	}
	cmd.Printf("%sNow:%s         %s\n", colorDim, colorReset, colorizeStatus(b.Verdict.Result))
	printReasons(cmd, b.Verdict.Reasons)

	if len(b.History) == 0 {
		cmd.Printf("\n%sNo recorded checks.%s\n", colorDim, colorReset)
		return
	}
	cmd.Printf("\n%sRecent checks:%s\n", colorBold, colorReset)
	for _, c := range b.History {
		cmd.Printf("  %s %s  %.2f SM, %s, %d kt\n",
			statusIcon(c.Result), formatTime(c.CheckTime), c.Visibility, formatCeiling(c.Ceiling), c.WindSpeed)
	}
}

func printRequest(cmd *cobra.Command, req *api.RescheduleRequest) {
	cmd.Printf("%s %sReschedule Request%s\n", statusIcon(req.Status), colorBold, colorReset)
	cmd.Println("──────────────────────────────")
	cmd.Printf("%sID:%s          %s\n", colorDim, colorReset, req.ID)
	cmd.Printf("%sFlight:%s      %s\n", colorDim, colorReset, req.FlightID)
	cmd.Printf("%sStatus:%s      %s\n", colorDim, colorReset, colorizeStatus(req.Status))
	cmd.Printf("%sExpires:%s     %s (%s)\n", colorDim, colorReset, formatTime(req.ExpiresAt), relativeUntil(req.ExpiresAt))
	if req.NewFlightID != nil {
		cmd.Printf("%sNew flight:%s  %s\n", colorDim, colorReset, *req.NewFlightID)
	}

	for i, c := range req.Suggestions {
		marker := " "
		if req.SelectedOption != nil && *req.SelectedOption == i {
			marker = colorGreen + "▶" + colorReset
		}
		cmd.Printf("\n%s %sOption %d%s  %s  %s[priority %d, %s confidence]%s\n",
			marker, colorBold, i+1, colorReset, formatTime(c.Slot),
			colorDim, c.Priority, strings.ToLower(c.Confidence), colorReset)
		cmd.Printf("    %s\n", c.Reasoning)
		if c.WeatherForecast != "" {
			cmd.Printf("    %sForecast:%s %s\n", colorDim, colorReset, c.WeatherForecast)
		}
	}
}

package render

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/slidecraft/slidecraft/internal/models"
)

// Chart plot area in millimeters
const (
	plotX      = 40.0
	plotY      = 55.0
	plotWidth  = 180.0
	plotHeight = 110.0
)

// seriesPalette supplies wedge colors for pie charts
var seriesPalette = []RGB{
	{0, 120, 215},
	{220, 53, 69},
	{40, 167, 69},
	{255, 193, 7},
	{111, 66, 193},
	{23, 162, 184},
	{253, 126, 20},
	{108, 117, 125},
}

// chartPage draws the data chart on its own page after the content slides
func (r *Renderer) chartPage(pdf *fpdf.Fpdf, theme Theme, chart *models.ChartData) {
	pdf.AddPage()
	fillBackground(pdf, theme)

	pdf.SetTextColor(theme.Title.R, theme.Title.G, theme.Title.B)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.SetXY(marginX, titleY)
	pdf.MultiCell(pageWidth-2*marginX, 12, chart.Title, "", "L", false)

	pdf.SetDrawColor(theme.Accent.R, theme.Accent.G, theme.Accent.B)
	pdf.SetLineWidth(1.0)
	pdf.Line(marginX, accentY, pageWidth-marginX, accentY)

	switch chart.Type {
	case "bar":
		r.drawBarChart(pdf, theme, chart)
	case "line":
		r.drawLineChart(pdf, theme, chart)
	case "pie":
		r.drawPieChart(pdf, theme, chart)
	}
}

func maxValue(values []float64) float64 {
	max := 0.0
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	if max <= 0 {
		max = 1
	}
	return max
}

func (r *Renderer) drawBarChart(pdf *fpdf.Fpdf, theme Theme, chart *models.ChartData) {
	max := maxValue(chart.Values)
	n := len(chart.Values)
	slot := plotWidth / float64(n)
	barWidth := slot * 0.6

	// Axes
	pdf.SetDrawColor(theme.Text.R, theme.Text.G, theme.Text.B)
	pdf.SetLineWidth(0.4)
	pdf.Line(plotX, plotY, plotX, plotY+plotHeight)
	pdf.Line(plotX, plotY+plotHeight, plotX+plotWidth, plotY+plotHeight)

	pdf.SetFillColor(theme.Accent.R, theme.Accent.G, theme.Accent.B)
	pdf.SetFont("Helvetica", "", 9)

	for i, value := range chart.Values {
		height := plotHeight * (value / max)
		x := plotX + float64(i)*slot + (slot-barWidth)/2
		y := plotY + plotHeight - height
		pdf.Rect(x, y, barWidth, height, "F")

		// Value above the bar
		pdf.SetTextColor(theme.Text.R, theme.Text.G, theme.Text.B)
		pdf.SetXY(x-2, y-5)
		pdf.CellFormat(barWidth+4, 4, trimFloat(value), "", 0, "C", false, 0, "")

		// Label below the axis
		pdf.SetXY(x-2, plotY+plotHeight+2)
		pdf.CellFormat(barWidth+4, 4, chart.Labels[i], "", 0, "C", false, 0, "")
	}
}

func (r *Renderer) drawLineChart(pdf *fpdf.Fpdf, theme Theme, chart *models.ChartData) {
	max := maxValue(chart.Values)
	n := len(chart.Values)

	pdf.SetDrawColor(theme.Text.R, theme.Text.G, theme.Text.B)
	pdf.SetLineWidth(0.4)
	pdf.Line(plotX, plotY, plotX, plotY+plotHeight)
	pdf.Line(plotX, plotY+plotHeight, plotX+plotWidth, plotY+plotHeight)

	pointX := func(i int) float64 {
		if n == 1 {
			return plotX + plotWidth/2
		}
		return plotX + plotWidth*float64(i)/float64(n-1)
	}
	pointY := func(v float64) float64 {
		return plotY + plotHeight - plotHeight*(v/max)
	}

	pdf.SetDrawColor(theme.Accent.R, theme.Accent.G, theme.Accent.B)
	pdf.SetLineWidth(0.8)
	for i := 1; i < n; i++ {
		pdf.Line(pointX(i-1), pointY(chart.Values[i-1]), pointX(i), pointY(chart.Values[i]))
	}

	pdf.SetFillColor(theme.Accent.R, theme.Accent.G, theme.Accent.B)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(theme.Text.R, theme.Text.G, theme.Text.B)
	for i, value := range chart.Values {
		pdf.Circle(pointX(i), pointY(value), 1.2, "F")
		pdf.SetXY(pointX(i)-10, plotY+plotHeight+2)
		pdf.CellFormat(20, 4, chart.Labels[i], "", 0, "C", false, 0, "")
	}
}

func (r *Renderer) drawPieChart(pdf *fpdf.Fpdf, theme Theme, chart *models.ChartData) {
	total := 0.0
	for _, v := range chart.Values {
		if v > 0 {
			total += v
		}
	}
	if total <= 0 {
		return
	}

	centerX := plotX + plotWidth/2 - 30
	centerY := plotY + plotHeight/2
	radius := plotHeight / 2

	angle := -math.Pi / 2
	for i, value := range chart.Values {
		if value <= 0 {
			continue
		}
		sweep := 2 * math.Pi * (value / total)
		color := seriesPalette[i%len(seriesPalette)]
		pdf.SetFillColor(color.R, color.G, color.B)
		drawWedge(pdf, centerX, centerY, radius, angle, angle+sweep)
		angle += sweep
	}

	// Legend
	pdf.SetFont("Helvetica", "", 10)
	legendX := centerX + radius + 20
	legendY := plotY + 10
	for i, label := range chart.Labels {
		color := seriesPalette[i%len(seriesPalette)]
		pdf.SetFillColor(color.R, color.G, color.B)
		pdf.Rect(legendX, legendY, 5, 5, "F")
		pdf.SetTextColor(theme.Text.R, theme.Text.G, theme.Text.B)
		pdf.SetXY(legendX+7, legendY)
		pdf.CellFormat(60, 5, fmt.Sprintf("%s (%s)", label, trimFloat(chart.Values[i])), "", 0, "L", false, 0, "")
		legendY += 8
	}
}

// drawWedge fills one pie sector as a polygon approximating the arc
func drawWedge(pdf *fpdf.Fpdf, cx, cy, radius, from, to float64) {
	steps := int(math.Ceil((to - from) / (math.Pi / 36)))
	if steps < 2 {
		steps = 2
	}

	points := make([]fpdf.PointType, 0, steps+2)
	points = append(points, fpdf.PointType{X: cx, Y: cy})
	for i := 0; i <= steps; i++ {
		a := from + (to-from)*float64(i)/float64(steps)
		points = append(points, fpdf.PointType{
			X: cx + radius*math.Cos(a),
			Y: cy + radius*math.Sin(a),
		})
	}
	pdf.Polygon(points, "F")
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

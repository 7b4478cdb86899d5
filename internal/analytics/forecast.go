package analytics

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNoHistory 没有任何历史月份，无法预测
var ErrNoHistory = errors.New("no historical data available for forecast")

// NoteBaseline 仅有一个月历史时的说明
const NoteBaseline = "Only one month of history; using last observed value as baseline"

// Round2 保留两位小数（四舍五入，远离零）
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// LinearRegression 最小二乘拟合 y = slope*x + intercept，x 取 1..n
func LinearRegression(ys []float64) (slope, intercept float64) {
	n := float64(len(ys))
	if n == 0 {
		return 0, 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i + 1)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	den := n*sumXX - sumX*sumX
	if den == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / den
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// Forecast 预测结果
type Forecast struct {
	Predicted float64
	Slope     *float64
	Intercept *float64
	Note      string
}

// ForecastNextMonth 按月度序列预测下一个月；预测值不小于 0
func ForecastNextMonth(ys []float64) (Forecast, error) {
	switch len(ys) {
	case 0:
		return Forecast{}, ErrNoHistory
	case 1:
		return Forecast{Predicted: Round2(ys[0]), Note: NoteBaseline}, nil
	}
	slope, intercept := LinearRegression(ys)
	next := slope*float64(len(ys)+1) + intercept
	if next < 0 {
		next = 0
	}
	s, i := Round2(slope), Round2(intercept)
	return Forecast{Predicted: Round2(next), Slope: &s, Intercept: &i}, nil
}

package chart

import (
	"time"
)

var baseDay = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// bar builds a sample n trading days after baseDay
func bar(n int, open, high, low, close float64, volume int64) Sample {
	t := baseDay.AddDate(0, 0, n)
	return Sample{Key: DateKey(t), Time: t, Open: open, High: high, Low: low, Close: close, Volume: volume}
}

// closesSeq builds a sequence whose candles span close +/- 1
func closesSeq(closes ...float64) Sequence {
	samples := make([]Sample, len(closes))
	for i, c := range closes {
		samples[i] = bar(i, c, c+1, c-1, c, int64(1_000_000*(i+1)))
	}
	return Sequence{Symbol: "TEST", Timeframe: TimeframeDaily, Samples: samples}
}

// flatDims has no margins and exact band arithmetic: two samples sit at 300 and 700
func flatDims() Dimensions {
	return Dimensions{Width: 1000, Height: 500, VolumeHeight: 100, BandPadding: 0.5}
}

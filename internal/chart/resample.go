package chart

// Resample folds chronological daily samples into weekly or monthly bars.
// Each bar takes the first open, last close, extreme high/low and summed volume of its
// bucket, and is keyed by the first trading day in the bucket. Daily input is returned as is.
func Resample(daily []Sample, timeframe string) []Sample {
	if timeframe != TimeframeWeekly && timeframe != TimeframeMonthly {
		return daily
	}

	var out []Sample
	lastBucket := -1
	for _, s := range daily {
		b := bucketOf(s, timeframe)
		if b != lastBucket || len(out) == 0 {
			out = append(out, s)
			lastBucket = b
			continue
		}
		cur := &out[len(out)-1]
		if s.High > cur.High {
			cur.High = s.High
		}
		if s.Low < cur.Low {
			cur.Low = s.Low
		}
		cur.Close = s.Close
		cur.Volume += s.Volume
	}
	return out
}

func bucketOf(s Sample, timeframe string) int {
	if timeframe == TimeframeWeekly {
		y, w := s.Time.ISOWeek()
		return y*100 + w
	}
	return s.Time.Year()*100 + int(s.Time.Month())
}

// Tail keeps at most n of the most recent samples. n <= 0 keeps everything.
func Tail(samples []Sample, n int) []Sample {
	if n <= 0 || len(samples) <= n {
		return samples
	}
	return samples[len(samples)-n:]
}

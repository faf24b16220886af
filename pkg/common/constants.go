package common

const (
	RedisStreamClusterBuySignals = "signals.cluster_buy"

	// RedisKeyJobLock is formatted with the job name.
	RedisKeyJobLock = "insider-scanner:lock:%s"

	JobNameIngestor       = "form4-ingestor"
	JobNameSignalDetector = "cluster-buy-detector"
)

package main

import (
	logrustash "github.com/bshuster-repo/logrus-logstash-hook"
	"github.com/elastic/go-elasticsearch/v7"
	"github.com/sirupsen/logrus"
	"gopkg.in/go-extras/elogrus.v7"
	"net"
)

var Log = logrus.New()

func SetupLogging(logConfig LogConfig) {
	level, err := logrus.ParseLevel(logConfig.Level)

	if err != nil {
		level = logrus.InfoLevel
	}

	Log.SetLevel(level)

	if logConfig.Format == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if logConfig.LogstashUrl != "" {
		conn, err := net.Dial("udp", logConfig.LogstashUrl)

		if err != nil {
			Log.WithError(err).Warn("logstash unreachable, hook disabled")
		} else {
			hook := logrustash.New(conn, logrustash.DefaultFormatter(logrus.Fields{"type": logConfig.ElasticSource}))
			Log.Hooks.Add(hook)
		}
	}

	if logConfig.ElasticUrl != "" {
		client, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: []string{logConfig.ElasticUrl},
		})

		if err != nil {
			Log.WithError(err).Warn("elasticsearch client failed, hook disabled")
			return
		}

		hook, err := elogrus.NewAsyncElasticHook(client, logConfig.ElasticSource, level, logConfig.ElasticIndex)

		if err != nil {
			Log.WithError(err).Warn("elasticsearch hook failed")
			return
		}

		Log.Hooks.Add(hook)
	}
}

package datastore

import (
	"context"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// InfluxClient writes points to an InfluxDB 2.x bucket. Tags are fixed at
// startup and attached to every point (host, region and the like).
type InfluxClient struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	tags     map[string]string
}

func NewInfluxClient(url, token, org, bucket string, tags map[string]string) *InfluxClient {
	client := influxdb2.NewClient(url, token)
	return &InfluxClient{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		tags:     tags,
	}
}

func (c *InfluxClient) WritePoint(ctx context.Context, p *Point) error {
	point := write.NewPoint(p.Measurement, c.tags, p.Fields, p.Time)
	return c.writeAPI.WritePoint(ctx, point)
}

func (c *InfluxClient) Close() {
	c.client.Close()
}

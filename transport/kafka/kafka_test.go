package kafka

import (
	"errors"
	"testing"

	sarama "github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDriver(t *testing.T, producer **mocks.SyncProducer) *KafkaDriver {
	return &KafkaDriver{
		kafkaTopic:       "flow-counts",
		kafkaBrk:         "127.0.0.1:9092",
		kafkaMaxMsgBytes: 1000000,
		kafkaVersion:     "2.8.0",
		kafkaSASL:        "none",
		newProducer: func(addrs []string, config *sarama.Config) (sarama.SyncProducer, error) {
			assert.Equal(t, []string{"127.0.0.1:9092"}, addrs)
			assert.True(t, config.Producer.Return.Successes)
			*producer = mocks.NewSyncProducer(t, config)
			return *producer, nil
		},
	}
}

func TestSend(t *testing.T) {
	var producer *mocks.SyncProducer
	d := newTestDriver(t, &producer)
	require.NoError(t, d.Init(""))

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != "port,protocol,count\n443,tcp,2\n" {
			return errors.New("unexpected payload")
		}
		return nil
	})
	require.NoError(t, d.Send(nil, []byte("port,protocol,count\n443,tcp,2\n")))
	require.NoError(t, d.Close())
}

func TestSendFailure(t *testing.T) {
	var producer *mocks.SyncProducer
	d := newTestDriver(t, &producer)
	require.NoError(t, d.Init("reports"))
	assert.Equal(t, "reports", d.kafkaTopic)

	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	err := d.Send(nil, []byte("data"))
	assert.True(t, errors.Is(err, sarama.ErrOutOfBrokers))
	require.NoError(t, d.Close())
}

func TestConfig(t *testing.T) {
	tests := []struct {
		name    string
		driver  KafkaDriver
		wantErr bool
	}{
		{"defaults", KafkaDriver{kafkaVersion: "2.8.0", kafkaSASL: "none"}, false},
		{"bad version", KafkaDriver{kafkaVersion: "banana"}, true},
		{"compression", KafkaDriver{kafkaVersion: "2.8.0", kafkaCompressionCodec: "GZIP"}, false},
		{"bad compression", KafkaDriver{kafkaVersion: "2.8.0", kafkaCompressionCodec: "brotli"}, true},
		{"bad sasl", KafkaDriver{kafkaVersion: "2.8.0", kafkaSASL: "kerberos"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.driver.config()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigSCRAM(t *testing.T) {
	t.Setenv("KAFKA_SASL_USER", "user")
	t.Setenv("KAFKA_SASL_PASS", "pass")

	d := KafkaDriver{kafkaVersion: "2.8.0", kafkaSASL: "scram-sha512"}
	cfg, err := d.config()
	require.NoError(t, err)
	assert.True(t, cfg.Net.SASL.Enable)
	assert.Equal(t, sarama.SASLMechanism(sarama.SASLTypeSCRAMSHA512), cfg.Net.SASL.Mechanism)
	assert.NotNil(t, cfg.Net.SASL.SCRAMClientGeneratorFunc())
}

func TestCloseWithoutInit(t *testing.T) {
	d := &KafkaDriver{}
	assert.NoError(t, d.Close())
}

func TestSetSCRAM(t *testing.T) {
	cfg := sarama.NewConfig()
	assert.False(t, setSCRAM(cfg, KAFKA_SASL_PLAIN))
	assert.Nil(t, cfg.Net.SASL.SCRAMClientGeneratorFunc)

	assert.True(t, setSCRAM(cfg, KAFKA_SASL_SCRAM_SHA256))
	assert.Equal(t, sarama.SASLMechanism(sarama.SASLTypeSCRAMSHA256), cfg.Net.SASL.Mechanism)

	client := cfg.Net.SASL.SCRAMClientGeneratorFunc()
	require.NoError(t, client.Begin("user", "pass", ""))
	assert.False(t, client.Done())
}

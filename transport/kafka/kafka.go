// Package kafka publishes reports to a Kafka topic.
package kafka

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	sarama "github.com/Shopify/sarama"

	"github.com/netsampler/flowcount/transport"
)

type KafkaDriver struct {
	kafkaTLS         bool
	kafkaSASL        string
	kafkaTopic       string
	kafkaSrv         string
	kafkaBrk         string
	kafkaMaxMsgBytes int
	kafkaTimeout     time.Duration

	kafkaVersion          string
	kafkaCompressionCodec string

	newProducer func(addrs []string, config *sarama.Config) (sarama.SyncProducer, error)
	producer    sarama.SyncProducer
}

type KafkaSASLAlgorithm string

const (
	KAFKA_SASL_NONE         KafkaSASLAlgorithm = "none"
	KAFKA_SASL_PLAIN        KafkaSASLAlgorithm = "plain"
	KAFKA_SASL_SCRAM_SHA256 KafkaSASLAlgorithm = "scram-sha256"
	KAFKA_SASL_SCRAM_SHA512 KafkaSASLAlgorithm = "scram-sha512"
)

var (
	compressionCodecs = map[string]sarama.CompressionCodec{
		strings.ToLower(sarama.CompressionNone.String()):   sarama.CompressionNone,
		strings.ToLower(sarama.CompressionGZIP.String()):   sarama.CompressionGZIP,
		strings.ToLower(sarama.CompressionSnappy.String()): sarama.CompressionSnappy,
		strings.ToLower(sarama.CompressionLZ4.String()):    sarama.CompressionLZ4,
		strings.ToLower(sarama.CompressionZSTD.String()):   sarama.CompressionZSTD,
	}

	saslAlgorithms = map[KafkaSASLAlgorithm]bool{
		KAFKA_SASL_PLAIN:        true,
		KAFKA_SASL_SCRAM_SHA256: true,
		KAFKA_SASL_SCRAM_SHA512: true,
	}
	saslAlgorithmsList = []string{
		string(KAFKA_SASL_NONE),
		string(KAFKA_SASL_PLAIN),
		string(KAFKA_SASL_SCRAM_SHA256),
		string(KAFKA_SASL_SCRAM_SHA512),
	}
)

func (d *KafkaDriver) Prepare() error {
	flag.BoolVar(&d.kafkaTLS, "transport.kafka.tls", false, "Use TLS to connect to Kafka")
	flag.StringVar(&d.kafkaSASL, "transport.kafka.sasl", "none",
		fmt.Sprintf(
			"Use SASL to connect to Kafka, available settings: %s (TLS is recommended and the environment variables KAFKA_SASL_USER and KAFKA_SASL_PASS need to be set)",
			strings.Join(saslAlgorithmsList, ", ")))

	flag.StringVar(&d.kafkaTopic, "transport.kafka.topic", "flow-counts", "Kafka topic to produce to")
	flag.StringVar(&d.kafkaSrv, "transport.kafka.srv", "", "SRV record containing a list of Kafka brokers (or use brokers)")
	flag.StringVar(&d.kafkaBrk, "transport.kafka.brokers", "127.0.0.1:9092,[::1]:9092", "Kafka brokers list separated by commas")
	flag.IntVar(&d.kafkaMaxMsgBytes, "transport.kafka.maxmsgbytes", 1000000, "Kafka max message bytes")
	flag.DurationVar(&d.kafkaTimeout, "transport.kafka.timeout", time.Second*10, "Kafka produce timeout")

	flag.StringVar(&d.kafkaVersion, "transport.kafka.version", "2.8.0", "Kafka version")
	flag.StringVar(&d.kafkaCompressionCodec, "transport.kafka.compression", "", "Kafka default compression")

	return nil
}

func (d *KafkaDriver) config() (*sarama.Config, error) {
	kafkaConfigVersion, err := sarama.ParseKafkaVersion(d.kafkaVersion)
	if err != nil {
		return nil, err
	}

	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Version = kafkaConfigVersion
	kafkaConfig.Producer.Return.Successes = true
	kafkaConfig.Producer.Return.Errors = true
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll
	kafkaConfig.Producer.MaxMessageBytes = d.kafkaMaxMsgBytes
	if d.kafkaTimeout > 0 {
		kafkaConfig.Producer.Timeout = d.kafkaTimeout
	}

	if d.kafkaCompressionCodec != "" {
		if cc, ok := compressionCodecs[strings.ToLower(d.kafkaCompressionCodec)]; !ok {
			return nil, errors.New("compression codec does not exist")
		} else {
			kafkaConfig.Producer.Compression = cc
		}
	}

	if d.kafkaTLS {
		rootCAs, err := x509.SystemCertPool()
		if err != nil {
			return nil, fmt.Errorf("error initializing TLS: %w", err)
		}
		kafkaConfig.Net.TLS.Enable = true
		kafkaConfig.Net.TLS.Config = &tls.Config{RootCAs: rootCAs}
	}

	kafkaSASL := KafkaSASLAlgorithm(strings.ToLower(d.kafkaSASL))
	if d.kafkaSASL != "" && kafkaSASL != KAFKA_SASL_NONE {
		if _, ok := saslAlgorithms[kafkaSASL]; !ok {
			return nil, errors.New("SASL algorithm does not exist")
		}

		kafkaConfig.Net.SASL.Enable = true
		kafkaConfig.Net.SASL.User = os.Getenv("KAFKA_SASL_USER")
		kafkaConfig.Net.SASL.Password = os.Getenv("KAFKA_SASL_PASS")
		if kafkaConfig.Net.SASL.User == "" && kafkaConfig.Net.SASL.Password == "" {
			return nil, errors.New("Kafka SASL config from environment was unsuccessful. KAFKA_SASL_USER and KAFKA_SASL_PASS need to be set.")
		}

		setSCRAM(kafkaConfig, kafkaSASL)
	}
	return kafkaConfig, nil
}

// Init connects to the brokers. dest, when set, overrides the topic.
func (d *KafkaDriver) Init(dest string) error {
	if dest != "" {
		d.kafkaTopic = dest
	}
	kafkaConfig, err := d.config()
	if err != nil {
		return err
	}

	var addrs []string
	if d.kafkaSrv != "" {
		addrs, err = GetServiceAddresses(d.kafkaSrv)
		if err != nil {
			return err
		}
	} else {
		addrs = strings.Split(d.kafkaBrk, ",")
	}

	newProducer := d.newProducer
	if newProducer == nil {
		newProducer = sarama.NewSyncProducer
	}
	d.producer, err = newProducer(addrs, kafkaConfig)
	return err
}

// Send produces data as one message and waits for the acknowledgement.
func (d *KafkaDriver) Send(key, data []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: d.kafkaTopic,
		Value: sarama.ByteEncoder(data),
	}
	if len(key) > 0 {
		msg.Key = sarama.ByteEncoder(key)
	}
	_, _, err := d.producer.SendMessage(msg)
	return err
}

func (d *KafkaDriver) Close() error {
	if d.producer == nil {
		return nil
	}
	err := d.producer.Close()
	d.producer = nil
	return err
}

func GetServiceAddresses(srv string) (addrs []string, err error) {
	_, srvs, err := net.LookupSRV("", "", srv)
	if err != nil {
		return nil, fmt.Errorf("service discovery: %w", err)
	}
	for _, srv := range srvs {
		addrs = append(addrs, net.JoinHostPort(srv.Target, strconv.Itoa(int(srv.Port))))
	}
	return addrs, nil
}

func init() {
	d := &KafkaDriver{}
	transport.RegisterTransportDriver("kafka", d)
}

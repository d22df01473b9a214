package kafka

// SCRAM conversation for sarama, based on the sarama SASL/SCRAM client example.

import (
	"crypto/sha256"
	"crypto/sha512"

	sarama "github.com/Shopify/sarama"
	"github.com/xdg-go/scram"
)

var (
	SHA256 scram.HashGeneratorFcn = sha256.New
	SHA512 scram.HashGeneratorFcn = sha512.New

	scramMechanisms = map[KafkaSASLAlgorithm]struct {
		mechanism sarama.SASLMechanism
		hash      scram.HashGeneratorFcn
	}{
		KAFKA_SASL_SCRAM_SHA256: {sarama.SASLTypeSCRAMSHA256, SHA256},
		KAFKA_SASL_SCRAM_SHA512: {sarama.SASLTypeSCRAMSHA512, SHA512},
	}
)

// XDGSCRAMClient implements sarama.SCRAMClient.
type XDGSCRAMClient struct {
	*scram.Client
	*scram.ClientConversation
	scram.HashGeneratorFcn
}

func (x *XDGSCRAMClient) Begin(userName, password, authzID string) (err error) {
	x.Client, err = x.NewClient(userName, password, authzID)
	if err != nil {
		return err
	}
	x.ClientConversation = x.NewConversation()
	return nil
}

func (x *XDGSCRAMClient) Step(challenge string) (string, error) {
	return x.ClientConversation.Step(challenge)
}

func (x *XDGSCRAMClient) Done() bool {
	return x.ClientConversation.Done()
}

// setSCRAM enables the SCRAM handshake on cfg when algorithm is a SCRAM
// variant. It reports whether it did.
func setSCRAM(cfg *sarama.Config, algorithm KafkaSASLAlgorithm) bool {
	m, ok := scramMechanisms[algorithm]
	if !ok {
		return false
	}
	cfg.Net.SASL.Handshake = true
	cfg.Net.SASL.Mechanism = m.mechanism
	cfg.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
		return &XDGSCRAMClient{HashGeneratorFcn: m.hash}
	}
	return true
}

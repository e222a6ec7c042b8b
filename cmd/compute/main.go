// Package main is the offline half of the air-gapped ceremony variant: it
// never opens a socket, only reads and writes the numbered disc files
// internal/ceremony/airgap defines, applying one stage transform per
// invocation with a private key it keeps on local disk between runs.
// Structural descendant of teacher's cmd/auctiond/main.go's one-shot
// "load state, do one thing, exit" shape, reduced to a single disc
// round-trip per process per original_source's split of the player into
// an offline secret-holding half and an online relay half.
package main

import (
	"bytes"
	"flag"
	"os"

	"github.com/pkg/errors"

	"github.com/hamzazf/ceremony/internal/ceremony/airgap"
	"github.com/hamzazf/ceremony/internal/ceremony/curve"
	"github.com/hamzazf/ceremony/internal/ceremony/digest"
	"github.com/hamzazf/ceremony/internal/ceremony/keys"
	"github.com/hamzazf/ceremony/internal/ceremony/stage"
	"github.com/hamzazf/ceremony/internal/ceremony/transport"
	"github.com/hamzazf/ceremony/internal/ceremony/wire"
	"github.com/hamzazf/ceremony/internal/ceremonylog"
)

var errUnknownMessageType = errors.New("compute: request disc names an unhandled message type")

func main() {
	keyPath := flag.String("key", "participant.key", "path to this participant's persisted private key")
	requestPath := flag.String("request", "discB", "path to the request disc written by the network role")
	resultPath := flag.String("result", "discC", "path to the result disc this process writes")
	workers := flag.Int("workers", 1, "worker goroutines to use for the transform")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error, fatal")
	flag.Parse()

	logger, err := ceremonylog.New(*logLevel, "", "")
	if err != nil {
		panic(err)
	}
	defer logger.Close()

	priv, err := loadOrCreatePrivateKey(*keyPath)
	if err != nil {
		logger.Fatal("loading private key: %v", err)
		return
	}

	c := &computer{priv: priv, workers: *workers}
	if err := airgap.ComputeRole(*requestPath, *resultPath, c.transform); err != nil {
		logger.Fatal("applying offline transform: %v", err)
		return
	}
	logger.Info("wrote result disc %s", *resultPath)
}

// computer holds the one private key this offline process reuses across
// however many stage invocations a ceremony round needs.
type computer struct {
	priv    *keys.PrivateKey
	workers int
}

// transform decodes a request disc's payload, applies the stage transform
// it names with this process's private key, and re-encodes the response.
// Request and result payloads both lead with the transport message type the
// network role is relaying, so a single compute binary handles every
// stage without the caller needing to pass it separately.
func (c *computer) transform(payload []byte) ([]byte, error) {
	r := wire.NewReader(bytes.NewReader(payload))
	msgType := transport.MessageType(r.Byte())

	var out bytes.Buffer
	w := wire.NewWriter(&out)
	w.Byte(byte(msgType))

	switch msgType {
	case transport.MsgCommitment:
		r.Bytes() // unused request body
		if r.Err() != nil {
			return nil, r.Err()
		}
		if err := c.transformCommitment(w); err != nil {
			return nil, err
		}
	case transport.MsgStage1:
		ctx := r.Digest512()
		body := r.Bytes()
		if r.Err() != nil {
			return nil, r.Err()
		}
		if err := c.transformStage1(w, ctx, body); err != nil {
			return nil, err
		}
	case transport.MsgStage2:
		body := r.Bytes()
		if r.Err() != nil {
			return nil, r.Err()
		}
		if err := c.transformStage2(w, body); err != nil {
			return nil, err
		}
	case transport.MsgStage3:
		body := r.Bytes()
		if r.Err() != nil {
			return nil, r.Err()
		}
		if err := c.transformStage3(w, body); err != nil {
			return nil, err
		}
	default:
		return nil, errUnknownMessageType
	}
	if w.Err() != nil {
		return nil, w.Err()
	}
	return out.Bytes(), nil
}

// transformCommitment derives this process's public key from its held
// private key and returns the commitment the network half submits during
// the collecting round, before any ceremony context exists to bind NIZKs
// to.
func (c *computer) transformCommitment(w *wire.Writer) error {
	pub, err := keys.NewPublicKey(c.priv)
	if err != nil {
		return err
	}
	commitment := pub.Hash()
	w.Bytes(commitment[:])
	return nil
}

func (c *computer) transformStage1(w *wire.Writer, ctx digest.Digest512, body []byte) error {
	current, err := stage.DecodeStage1(wire.NewReader(bytes.NewReader(body)))
	if err != nil {
		return err
	}
	candidate := &stage.Stage1{
		V1: append([]curve.G1(nil), current.V1...),
		V2: append([]curve.G2(nil), current.V2...),
	}
	if err := candidate.Transform(c.priv, c.workers); err != nil {
		return err
	}
	pub, err := keys.NewPublicKey(c.priv)
	if err != nil {
		return err
	}
	nizks, err := keys.NewPublicKeyNizks(pub, c.priv, ctx)
	if err != nil {
		return err
	}
	bundle := &keys.PublicKeyBundle{PublicKey: pub, Nizks: nizks}

	var resp bytes.Buffer
	rw := wire.NewWriter(&resp)
	bundle.Encode(rw)
	candidate.Encode(rw)
	if rw.Err() != nil {
		return rw.Err()
	}
	w.Bytes(resp.Bytes())
	return nil
}

func (c *computer) transformStage2(w *wire.Writer, body []byte) error {
	current, err := stage.DecodeStage2(wire.NewReader(bytes.NewReader(body)))
	if err != nil {
		return err
	}
	candidate := &stage.Stage2{
		VkA:      current.VkA,
		VkB:      current.VkB,
		VkC:      current.VkC,
		VkZ:      current.VkZ,
		PkA:      append([]curve.G1(nil), current.PkA...),
		PkAPrime: append([]curve.G1(nil), current.PkAPrime...),
		PkB:      append([]curve.G2(nil), current.PkB...),
		PkBTemp:  append([]curve.G1(nil), current.PkBTemp...),
		PkBPrime: append([]curve.G1(nil), current.PkBPrime...),
		PkC:      append([]curve.G1(nil), current.PkC...),
		PkCPrime: append([]curve.G1(nil), current.PkCPrime...),
	}
	if err := candidate.Transform(c.priv, c.workers); err != nil {
		return err
	}
	var resp bytes.Buffer
	rw := wire.NewWriter(&resp)
	candidate.Encode(rw)
	if rw.Err() != nil {
		return rw.Err()
	}
	w.Bytes(resp.Bytes())
	return nil
}

func (c *computer) transformStage3(w *wire.Writer, body []byte) error {
	current, err := stage.DecodeStage3(wire.NewReader(bytes.NewReader(body)))
	if err != nil {
		return err
	}
	candidate := &stage.Stage3{
		VkGamma:      current.VkGamma,
		VkBetaGamma1: current.VkBetaGamma1,
		VkBetaGamma2: current.VkBetaGamma2,
		PkK:          append([]curve.G1(nil), current.PkK...),
	}
	if err := candidate.Transform(c.priv, c.workers); err != nil {
		return err
	}
	var resp bytes.Buffer
	rw := wire.NewWriter(&resp)
	candidate.Encode(rw)
	if rw.Err() != nil {
		return rw.Err()
	}
	w.Bytes(resp.Bytes())
	return nil
}

// loadOrCreatePrivateKey reads a persisted private key from path, or
// samples a fresh one and writes it there if no key file exists yet. A
// single offline process answers every stage of one ceremony round, so its
// secret must survive between this binary's separate invocations.
func loadOrCreatePrivateKey(path string) (*keys.PrivateKey, error) {
	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		return keys.DecodePrivateKey(wire.NewReader(f))
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	priv, err := keys.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	out, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer out.Close()
	w := wire.NewWriter(out)
	priv.Encode(w)
	if w.Err() != nil {
		return nil, w.Err()
	}
	return priv, nil
}

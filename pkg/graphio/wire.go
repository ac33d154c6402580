package graphio

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/mchecker/perfcore/pkg/perfcore"
)

// Wire field numbers for the two shard message kinds. These are a local
// convention: the protobuf descriptor definitions themselves belong to
// the exploration phase that writes the shards, not this loader. The
// loader only needs to agree with the writer on field numbers.
const (
	fieldNodesJSON = 1 // Nodes.json: repeated string

	fieldLinksTotalNodes = 1 // Links.total_nodes: int64
	fieldLinksLinks      = 2 // Links.links: repeated Link

	fieldLinkSrc    = 1 // Link.src: int64
	fieldLinkDst    = 2 // Link.dst: int64
	fieldLinkWeight = 3 // Link.weight: double
	fieldLinkLabels = 4 // Link.labels: repeated string
)

// decodeNodes parses a concatenated stream of wire-format Nodes
// messages, accumulating the repeated json field across all of them -
// this reproduces the "concatenation of shards is equivalent to
// decoding one message whose repeated fields are the union" contract
// without depending on generated descriptor code.
func decodeNodes(b []byte) ([]string, error) {
	var out []string
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == fieldNodesJSON && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			out = append(out, string(v))
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return out, nil
}

// decodedLinks is the field-by-field result of decoding a concatenated
// Links byte stream: totalNodes reflects proto3 "last scalar field
// wins" merge semantics, links accumulates across every shard.
type decodedLinks struct {
	totalNodes int64
	haveTotal  bool
	links      []perfcore.Link
}

func decodeLinks(b []byte) (decodedLinks, error) {
	var out decodedLinks
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return out, protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == fieldLinksTotalNodes && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return out, protowire.ParseError(n)
			}
			out.totalNodes = int64(v)
			out.haveTotal = true
			b = b[n:]
		case num == fieldLinksLinks && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return out, protowire.ParseError(n)
			}
			link, err := decodeLink(v)
			if err != nil {
				return out, err
			}
			out.links = append(out.links, link)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return out, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return out, nil
}

func decodeLink(b []byte) (perfcore.Link, error) {
	var link perfcore.Link
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return link, protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == fieldLinkSrc && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return link, protowire.ParseError(n)
			}
			link.Src = int(v)
			b = b[n:]
		case num == fieldLinkDst && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return link, protowire.ParseError(n)
			}
			link.Dst = int(v)
			b = b[n:]
		case num == fieldLinkWeight && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return link, protowire.ParseError(n)
			}
			link.Weight = math.Float64frombits(v)
			b = b[n:]
		case num == fieldLinkLabels && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return link, protowire.ParseError(n)
			}
			link.Labels = append(link.Labels, string(v))
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return link, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return link, nil
}

// EncodeNodes and EncodeLink below are the inverse of the decoders
// above. They exist so tests and the synthetic shard generator
// (pkg/testgen) can produce fixtures without a protoc toolchain.

// EncodeNodes serializes a Nodes shard with the given opaque per-state
// JSON strings as its repeated json field.
func EncodeNodes(jsonStrings []string) []byte {
	var b []byte
	for _, s := range jsonStrings {
		b = protowire.AppendTag(b, fieldNodesJSON, protowire.BytesType)
		b = protowire.AppendBytes(b, []byte(s))
	}
	return b
}

// EncodeLinks serializes a Links shard: totalNodes (omit by passing a
// negative value) followed by the given links, each nested as a
// length-delimited embedded message.
func EncodeLinks(totalNodes int, links []perfcore.Link) []byte {
	var b []byte
	if totalNodes >= 0 {
		b = protowire.AppendTag(b, fieldLinksTotalNodes, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(totalNodes))
	}
	for _, link := range links {
		encoded := EncodeLink(link)
		b = protowire.AppendTag(b, fieldLinksLinks, protowire.BytesType)
		b = protowire.AppendBytes(b, encoded)
	}
	return b
}

// EncodeLink serializes a single Link message.
func EncodeLink(link perfcore.Link) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldLinkSrc, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(link.Src))
	b = protowire.AppendTag(b, fieldLinkDst, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(link.Dst))
	b = protowire.AppendTag(b, fieldLinkWeight, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(link.Weight))
	for _, label := range link.Labels {
		b = protowire.AppendTag(b, fieldLinkLabels, protowire.BytesType)
		b = protowire.AppendBytes(b, []byte(label))
	}
	return b
}

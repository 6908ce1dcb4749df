package app

import (
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/searchktools/evloop/core"
	"github.com/searchktools/evloop/core/http"
	"github.com/searchktools/evloop/core/router"
)

const contentTypeProtobuf = "application/x-protobuf"

// StatsHandler serves s.Stats() as a google.protobuf.Struct: binary when the
// request accepts application/x-protobuf, JSON otherwise.
func StatsHandler(s *core.Server) router.HandlerFunc {
	return func(req *http.Request) *http.Response {
		msg, err := statsStruct(s.Stats())
		if err != nil {
			return errorResponse(err)
		}

		var (
			body        []byte
			contentType string
		)
		if strings.Contains(req.Header("Accept"), contentTypeProtobuf) {
			body, err = proto.Marshal(msg)
			contentType = contentTypeProtobuf
		} else {
			body, err = protojson.MarshalOptions{Multiline: true}.Marshal(msg)
			contentType = "application/json"
		}
		if err != nil {
			return errorResponse(err)
		}

		resp := http.NewResponse(http.StatusOK)
		resp.SetHeader(http.HeaderContentType, contentType)
		resp.SetBody(body)
		return resp
	}
}

func statsStruct(st core.Stats) (*structpb.Struct, error) {
	workers := make([]interface{}, 0, len(st.Workers))
	for _, w := range st.Workers {
		workers = append(workers, workerFields(w))
	}
	totals := workerFields(st.Totals())
	delete(totals, "id")

	return structpb.NewStruct(map[string]interface{}{
		"running": st.Running,
		"port":    st.Port,
		"workers": workers,
		"totals":  totals,
		"buffers": map[string]interface{}{
			"gets":      st.Buffers.Gets,
			"puts":      st.Buffers.Puts,
			"oversized": st.Buffers.Oversized,
		},
	})
}

func workerFields(w core.WorkerStats) map[string]interface{} {
	return map[string]interface{}{
		"id":             w.ID,
		"accepted":       w.Accepted,
		"active":         w.Active,
		"requests":       w.Requests,
		"bytes_read":     w.BytesRead,
		"bytes_written":  w.BytesWritten,
		"partial_writes": w.PartialWrites,
	}
}

func errorResponse(err error) *http.Response {
	resp := http.NewResponse(http.StatusInternalServerError)
	resp.SetHeader(http.HeaderContentType, "text/plain")
	resp.SetBodyString(err.Error())
	return resp
}

package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/golang/glog"

	"chanmask/mask"
)

const (
	contentType              = "application/json"
	collectEndpoint          = "chanmask/v1/collect"
	defaultSendResultsAmount = 100
)

// ChanmaskServer batches mask results and pushes them to the collection
// endpoint of a chanmask server.
type ChanmaskServer struct {
	Server            string
	SendResultsAmount int
}

func (s *ChanmaskServer) Write(ctx context.Context, results <-chan mask.Result) error {
	sendResultsAmount := defaultSendResultsAmount
	if s.SendResultsAmount > 0 {
		sendResultsAmount = s.SendResultsAmount
	}

	var resultsToSend []mask.Result
	for result := range results {
		resultsToSend = append(resultsToSend, result)
		if len(resultsToSend) < sendResultsAmount {
			continue // we haven't collected enough results to send yet
		}
		s.push(resultsToSend)
		resultsToSend = nil
	}
	// Input channels close after a finite run, send what is left.
	if len(resultsToSend) > 0 {
		s.push(resultsToSend)
	}

	return nil
}

func (s *ChanmaskServer) push(resultsToSend []mask.Result) {
	type collectResponse struct {
		Status      string `json:"status"`
		ResultCount int    `json:"resultCount"`
	}

	body, err := json.Marshal(resultsToSend)
	if err != nil {
		glog.Warningf("error marshalling results to JSON: %s\n", err)
		return
	}

	resp, err := http.Post(fmt.Sprintf("%s/%s", strings.TrimRight(s.Server, "/"), collectEndpoint), contentType, bytes.NewBuffer(body))
	if err != nil {
		glog.Warningf("error POSTing results: %s\n", err)
		return
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		glog.Warningf("error reading POST body: %s\n", err)
	}

	collectResponseBody := collectResponse{}
	json.Unmarshal(respBody, &collectResponseBody)
	glog.Infof("submitted %v results to server %s", collectResponseBody.ResultCount, s.Server)
}

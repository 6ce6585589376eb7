package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"github.com/mycok/uCheck/checkstate/state"
)

// Static and compile-time check to ensure ElasticsearchStore implements
// state.Store.
var _ state.Store = (*ElasticsearchStore)(nil)

// The name of the elasticsearch index to use.
const indexName = "checkstate"

// JSON data structure that defines the properties of an elasticsearch
// check-state document.
var esMappings = `
{
  "mappings" : {
    "properties": {
      "DocumentID": {"type": "keyword"},
      "Fingerprint": {"type": "keyword"},
      "CheckedAt": {"type": "date"},
      "BrokenLinks": {
        "properties": {
          "URL": {"type": "keyword"},
          "RawTag": {"type": "text"}
        }
      }
    }
  }
}`

type esSearchRes struct {
	Hits esSearchResHits `json:"hits"`
}

type esSearchResHits struct {
	HitList []esHitWrapper `json:"hits"`
}

type esHitWrapper struct {
	DocSource esDoc `json:"_source"`
}

type esBrokenLink struct {
	URL    string `json:"URL"`
	RawTag string `json:"RawTag"`
}

type esDoc struct {
	DocumentID  string         `json:"DocumentID"`
	BrokenLinks []esBrokenLink `json:"BrokenLinks"`
	Fingerprint string         `json:"Fingerprint"`
	CheckedAt   time.Time      `json:"CheckedAt"`
}

type esUpdateRes struct {
	Result string `json:"result"`
}

type esErrorRes struct {
	Error esError `json:"error"`
}

type esError struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func (e esError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Reason)
}

// ElasticsearchStore is a state.Store implementation that persists
// document check states in an elasticsearch cluster.
type ElasticsearchStore struct {
	client      *elasticsearch.Client
	refreshOpts func(*esapi.UpdateRequest)
}

// NewElasticsearchStore instantiates and returns a check-state store
// backed by an elasticsearch instance.
func NewElasticsearchStore(
	esNodes []string, shouldSyncUpdates bool,
) (*ElasticsearchStore, error) {

	cfg := elasticsearch.Config{
		Addresses: esNodes,
	}

	c, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	if err = initIndex(c); err != nil {
		return nil, err
	}

	refreshOpts := c.Update.WithRefresh("false")

	if shouldSyncUpdates {
		refreshOpts = c.Update.WithRefresh("true")
	}

	return &ElasticsearchStore{
		client:      c,
		refreshOpts: refreshOpts,
	}, nil
}

// Upsert creates or fully replaces the check state for a document.
func (s *ElasticsearchStore) Upsert(docState *state.DocumentState) error {
	if docState.DocumentID == uuid.Nil {
		return fmt.Errorf("upsert state: %w", state.ErrMissingDocumentID)
	}

	var (
		buf   bytes.Buffer
		esDoc = makeEsDoc(docState)
	)

	forUpdate := map[string]interface{}{
		"doc":           esDoc,
		"doc_as_upsert": true,
	}

	if err := json.NewEncoder(&buf).Encode(forUpdate); err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}

	res, err := s.client.Update(indexName, esDoc.DocumentID, &buf, s.refreshOpts)
	if err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}

	var updateRes esUpdateRes
	if err = unmarshalResponse(res, &updateRes); err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}

	return nil
}

// Find performs a check-state lookup by document id.
func (s *ElasticsearchStore) Find(documentID uuid.UUID) (*state.DocumentState, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"DocumentID": documentID.String(),
			},
		},
		"from": 0,
		"size": 1,
	}

	searchRes, err := performSearch(s.client, query)
	if err != nil {
		return nil, fmt.Errorf("find state: %w", err)
	}

	if len(searchRes.Hits.HitList) == 0 {
		return nil, fmt.Errorf("find state: %w", state.ErrNotFound)
	}

	return esDocToState(&searchRes.Hits.HitList[0].DocSource)
}

func performSearch(
	client *elasticsearch.Client, query map[string]interface{},
) (*esSearchRes, error) {
	var buf bytes.Buffer

	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	// Perform the search.
	res, err := client.Search(
		client.Search.WithContext(context.Background()),
		client.Search.WithIndex(indexName),
		client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, err
	}

	var esRes esSearchRes
	if err = unmarshalResponse(res, &esRes); err != nil {
		return nil, err
	}

	return &esRes, nil
}

func initIndex(client *elasticsearch.Client) error {
	mappingsReader := strings.NewReader(esMappings)

	res, err := client.Indices.Create(
		indexName,
		client.Indices.Create.WithBody(mappingsReader),
	)
	// For cases where index creation fails due to client issues,
	// ie network connection issues.
	if err != nil {
		return fmt.Errorf("failed to create ES index: %w", err)
	}

	// For cases where index creation fails due to other issues,
	// ie invalid params.
	if res.IsError() {
		err = unMarshalError(res)

		esErr, isEsError := err.(esError)
		if isEsError && esErr.Type == "resource_already_exists_exception" {
			return nil
		}

		return fmt.Errorf("failed to create ES index: %w", err)
	}

	return nil
}

func unMarshalError(res *esapi.Response) error {
	return unmarshalResponse(res, nil)
}

func unmarshalResponse(res *esapi.Response, into interface{}) error {
	defer func() {
		res.Body.Close()
	}()

	if res.IsError() {
		var errorRes esErrorRes
		if err := json.NewDecoder(res.Body).Decode(&errorRes); err != nil {
			return err
		}

		return errorRes.Error
	}

	if into == nil {
		return nil
	}

	return json.NewDecoder(res.Body).Decode(into)
}

func makeEsDoc(docState *state.DocumentState) esDoc {
	doc := esDoc{
		DocumentID:  docState.DocumentID.String(),
		Fingerprint: docState.Fingerprint,
		CheckedAt:   docState.CheckedAt.UTC(),
	}

	// Always store a non-nil list so that an upsert with an empty
	// broken set replaces a previously populated one.
	doc.BrokenLinks = make([]esBrokenLink, len(docState.BrokenLinks))
	for i, l := range docState.BrokenLinks {
		doc.BrokenLinks[i] = esBrokenLink{URL: l.URL, RawTag: l.RawTag}
	}

	return doc
}

func esDocToState(doc *esDoc) (*state.DocumentState, error) {
	documentID, err := uuid.Parse(doc.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("find state: %w", err)
	}

	docState := &state.DocumentState{
		DocumentID:  documentID,
		Fingerprint: doc.Fingerprint,
		CheckedAt:   doc.CheckedAt,
	}

	for _, l := range doc.BrokenLinks {
		docState.BrokenLinks = append(
			docState.BrokenLinks, state.BrokenLink{URL: l.URL, RawTag: l.RawTag},
		)
	}

	return docState, nil
}

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// PayloadType は設定ペイロードの種別を表す。
type PayloadType string

const (
	PayloadTypeVOD         PayloadType = "vod"
	PayloadTypeDailymotion PayloadType = "dailymotion"
	PayloadTypeAll         PayloadType = "all"
)

// Valid は既知の種別かどうかを返す。
func (t PayloadType) Valid() bool {
	switch t {
	case PayloadTypeVOD, PayloadTypeDailymotion, PayloadTypeAll:
		return true
	}
	return false
}

// ConfigPayload は復号済みの設定ペイロード。
// timestamp, expiresAt はUnixエポックのミリ秒。
// 既知フィールド以外のトップレベル要素はCollectionsに保持し、中身は解釈しない。
type ConfigPayload struct {
	Type        PayloadType
	Timestamp   int64
	ExpiresAt   *int64
	Collections map[string]any
}

var reservedPayloadKeys = map[string]struct{}{
	"type":      {},
	"timestamp": {},
	"expiresAt": {},
}

// UnmarshalJSON は既知フィールドを取り出し、残りをCollectionsに格納する。
func (p *ConfigPayload) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("payload must be a JSON object")
	}

	var out ConfigPayload
	if raw, ok := fields["type"]; ok {
		if err := json.Unmarshal(raw, &out.Type); err != nil {
			return fmt.Errorf("type: %w", err)
		}
	}
	if raw, ok := fields["timestamp"]; ok {
		if err := json.Unmarshal(raw, &out.Timestamp); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
	}
	if raw, ok := fields["expiresAt"]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		var exp int64
		if err := json.Unmarshal(raw, &exp); err != nil {
			return fmt.Errorf("expiresAt: %w", err)
		}
		out.ExpiresAt = &exp
	}

	for key, raw := range fields {
		if _, reserved := reservedPayloadKeys[key]; reserved {
			continue
		}
		// 数値の精度を落とさないようjson.Numberで保持する
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if out.Collections == nil {
			out.Collections = make(map[string]any)
		}
		out.Collections[key] = v
	}

	*p = out
	return nil
}

// MarshalJSON は既知フィールドとCollectionsを1つのオブジェクトとして出力する。
func (p ConfigPayload) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(p.Collections))
	for k := range p.Collections {
		if _, reserved := reservedPayloadKeys[k]; reserved {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	writeField := func(key string, v any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}

	if err := writeField("type", p.Type); err != nil {
		return nil, err
	}
	if err := writeField("timestamp", p.Timestamp); err != nil {
		return nil, err
	}
	if p.ExpiresAt != nil {
		if err := writeField("expiresAt", *p.ExpiresAt); err != nil {
			return nil, err
		}
	}
	for _, k := range keys {
		if err := writeField(k, p.Collections[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

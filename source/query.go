// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package source

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// EncodeQuery URL-encodes params in key order. Lists become repeated
// keys and times are formatted as "2006-01-02 15:04:05".
func EncodeQuery(params map[string]interface{}) string {
	v := url.Values{}
	for k, p := range params {
		if list, ok := p.([]interface{}); ok {
			for _, e := range list {
				v.Add(k, FormatValue(e))
			}
			continue
		}
		v.Set(k, FormatValue(p))
	}
	return v.Encode()
}

// FormatValue formats a query parameter value.
func FormatValue(p interface{}) string {
	switch p := p.(type) {
	case nil:
		return ""
	case string:
		return p
	case bool:
		return strconv.FormatBool(p)
	case int:
		return strconv.Itoa(p)
	case float64:
		return strconv.FormatFloat(p, 'f', -1, 64)
	case time.Time:
		return p.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprint(p)
}

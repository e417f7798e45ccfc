package feed

func SetMaxPayload(c *Client, n int64) { c.maxPayload = n }

package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func pathID(c *gin.Context) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(c.Param("id")))
}

func parseOptionalID(raw string) (*snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

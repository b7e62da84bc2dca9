package presets

import (
	"encoding/json"
	"errors"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

// Cache keeps recently read user presets in a freecache segment.
type Cache struct {
	fc     *freecache.Cache
	ttlSec int
}

func NewCache(sizeMB, ttlSec int) *Cache {
	if sizeMB <= 0 {
		sizeMB = 1
	}
	return &Cache{
		// freecache enforces a 512KB minimum
		fc:     freecache.NewCache(sizeMB * 1024 * 1024),
		ttlSec: ttlSec,
	}
}

func (c *Cache) Get(name string) (*Preset, bool) {
	data, err := c.fc.Get([]byte(name))
	if err != nil {
		if !errors.Is(err, freecache.ErrNotFound) {
			log.Warnf("preset cache get [%s]: %s", name, err)
		}
		return nil, false
	}

	var p Preset
	if err := json.Unmarshal(data, &p); err != nil {
		log.Errorf("preset cache, unmarshal [%s]: %s", name, err)
		c.fc.Del([]byte(name))
		return nil, false
	}
	return &p, true
}

func (c *Cache) Set(p Preset) {
	data, err := json.Marshal(p)
	if err != nil {
		log.Errorf("preset cache, marshal [%s]: %s", p.Name, err)
		return
	}
	if err := c.fc.Set([]byte(p.Name), data, c.ttlSec); err != nil {
		log.Warnf("preset cache set [%s]: %s", p.Name, err)
	}
}

func (c *Cache) Del(name string) {
	c.fc.Del([]byte(name))
}

func (c *Cache) Len() int64 {
	return c.fc.EntryCount()
}

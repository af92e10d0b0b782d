package relay

import (
	"context"
	"fmt"
)

func queueKey(address string) string {
	return fmt.Sprintf("inputs: %s", address)
}

func (s *RelayServer) QueueInput(ctx context.Context, address string, data []byte) error {
	return s.redisService.RPush(ctx, queueKey(address), data)
}

func (s *RelayServer) DrainQueuedInputs(ctx context.Context, address string) ([][]byte, error) {
	key := queueKey(address)
	vals, err := s.redisService.LRange(ctx, key)
	if err != nil {
		return nil, err
	}
	s.redisService.Del(ctx, key)

	var res [][]byte
	for _, v := range vals {
		res = append(res, []byte(v))
	}
	return res, nil
}

package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE generated_graphs (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				explanation TEXT NOT NULL,
				platform VARCHAR(50) NOT NULL DEFAULT '',
				approach VARCHAR(50) NOT NULL DEFAULT '',
				graph JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_generated_graphs_created_at ON generated_graphs(created_at);
		`,
		2: `
			ALTER TABLE generated_graphs ADD COLUMN node_count INT NOT NULL DEFAULT 0;
			CREATE INDEX idx_generated_graphs_platform ON generated_graphs(platform);
		`,
	}
}
